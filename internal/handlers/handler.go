package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pharma-crm-server/internal/middleware"
	"pharma-crm-server/internal/policy"
	"pharma-crm-server/internal/services"
	"pharma-crm-server/internal/utils"
)

// currentActor returns the request actor or answers 401.
func currentActor(c *gin.Context) (policy.Actor, bool) {
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return policy.Actor{}, false
	}
	return actor, true
}

// statusFor maps a service error onto an HTTP status. Unknown errors are
// storage failures.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrBadCredentials), errors.Is(err, services.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrDuplicate), errors.Is(err, services.ErrInUse):
		return http.StatusConflict
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidID),
		errors.Is(err, services.ErrInvalidStart),
		errors.Is(err, services.ErrInvalidDoctor),
		errors.Is(err, services.ErrPipelineMismatch):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes err in the standard envelope. Internal errors are
// recorded on the context for the request logger and hidden from the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		utils.InternalServerError(c, "Internal server error")
		return
	}
	utils.Error(c, status, err.Error())
}

// pageError answers a failed page action. Forbidden rows send the user back
// to the listing; everything else is reported like the JSON API.
func pageError(c *gin.Context, err error, listPath string) {
	if errors.Is(err, services.ErrForbidden) {
		utils.SeeOther(c, listPath)
		return
	}
	respondError(c, err)
}
