// Package policy decides which rows an authenticated actor may see or change.
//
// An Actor is built once per request by the auth middleware and passed
// explicitly to every service call; nothing below the middleware looks the
// user's role up again.
package policy

import (
	"pharma-crm-server/internal/models"
)

// Actor is the authorization context of a request.
type Actor struct {
	UserID   string
	Username string
	// Manager actors have unscoped visibility.
	Manager bool
	// RepresentativeID is the actor's field profile, empty when none exists.
	RepresentativeID string
}

// Scope is the row filter a repository applies for an actor.
type Scope struct {
	// OwnerID restricts owned rows to this owner. Nil means unrestricted.
	OwnerID *string
	// RepresentativeID widens doctor visibility to active assignments.
	RepresentativeID string
}

// Unrestricted reports whether the scope lets every row through.
func (s Scope) Unrestricted() bool {
	return s.OwnerID == nil
}

// IsManager reports whether the user is a superuser or belongs to a manager
// group. Groups must be preloaded.
func IsManager(user *models.User) bool {
	if user == nil {
		return false
	}
	return user.IsSuperuser || user.InGroup(models.ManagerGroups...)
}

// NewActor builds the authorization context for a loaded user. rep may be nil.
func NewActor(user *models.User, rep *models.Representative) Actor {
	a := Actor{
		UserID:   user.ID,
		Username: user.Username,
		Manager:  IsManager(user),
	}
	if rep != nil {
		a.RepresentativeID = rep.ID
	}
	return a
}

// Scope returns the row filter for this actor.
func (a Actor) Scope() Scope {
	if a.Manager {
		return Scope{}
	}
	id := a.UserID
	return Scope{OwnerID: &id, RepresentativeID: a.RepresentativeID}
}

// Owns reports whether ownerID points at this actor.
func (a Actor) Owns(ownerID *string) bool {
	return ownerID != nil && *ownerID == a.UserID
}

// CanMutate reports whether the actor may read, change or delete a row with
// the given owner. Rows without an owner are manager-only.
func (a Actor) CanMutate(ownerID *string) bool {
	return a.Manager || a.Owns(ownerID)
}

// OwnerForCreate picks the owner of a new row. Representatives always own
// what they create, whatever was submitted; managers may hand the row to
// someone else and default to themselves.
func (a Actor) OwnerForCreate(submitted *string) *string {
	if a.Manager && submitted != nil && *submitted != "" {
		owner := *submitted
		return &owner
	}
	owner := a.UserID
	return &owner
}

// OwnerForUpdate returns the owner to persist on edit. Only managers can
// reassign; an empty submission keeps the current owner.
func (a Actor) OwnerForUpdate(current, submitted *string) *string {
	if !a.Manager || submitted == nil || *submitted == "" {
		return current
	}
	owner := *submitted
	return &owner
}
