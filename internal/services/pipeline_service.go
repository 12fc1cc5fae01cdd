package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/policy"
	"pharma-crm-server/internal/repository"
)

// DefaultPipelineName and DefaultStages seed the board on first use.
const DefaultPipelineName = "Default"

var DefaultStages = []string{"Prospecting", "Qualification", "Proposal", "Closing"}

const dateLayout = "2006-01-02"

// DealSummary is one row of the deals feed.
type DealSummary struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Amount  float64 `json:"amount"`
	Org     string  `json:"org"`
	Contact string  `json:"contact"`
	StageID string  `json:"stage_id"`
	Status  string  `json:"status"`
}

// KanbanColumn is a stage with the actor's deals in it.
type KanbanColumn struct {
	Stage models.Stage  `json:"stage"`
	Deals []DealSummary `json:"deals"`
}

// Kanban is the board of the default pipeline.
type Kanban struct {
	Pipeline *models.Pipeline `json:"pipeline"`
	Columns  []KanbanColumn   `json:"columns"`
}

// DealInput is the deal form. Without a pipeline the default pipeline is
// used; without a stage, the pipeline's first stage.
type DealInput struct {
	Title          string  `json:"title" form:"title" validate:"required,max=180"`
	OrganizationID string  `json:"organization" form:"organization"`
	ContactID      string  `json:"contact" form:"contact"`
	Amount         float64 `json:"amount" form:"amount" validate:"gte=0"`
	PipelineID     string  `json:"pipeline" form:"pipeline"`
	StageID        string  `json:"stage" form:"stage"`
	Status         string  `json:"status" form:"status"`
	ExpectedClose  string  `json:"expected_close" form:"expected_close"`
	OwnerID        string  `json:"owner" form:"owner"`
}

// PipelineInput creates a pipeline with its stages in board order.
type PipelineInput struct {
	Name      string   `json:"name" form:"name" validate:"required,max=80"`
	IsDefault bool     `json:"is_default" form:"is_default"`
	Stages    []string `json:"stages" form:"stages" validate:"min=1,dive,required,max=80"`
}

// PipelineService runs the deal pipeline and the kanban board.
type PipelineService struct {
	pipelines     repository.PipelineRepository
	deals         repository.DealRepository
	organizations repository.OrganizationRepository
	doctors       *DoctorService
}

func NewPipelineService(pipelines repository.PipelineRepository, deals repository.DealRepository, organizations repository.OrganizationRepository, doctors *DoctorService) *PipelineService {
	return &PipelineService{pipelines: pipelines, deals: deals, organizations: organizations, doctors: doctors}
}

// ListDeals returns the actor's deals, most recently updated first.
func (s *PipelineService) ListDeals(ctx context.Context, actor policy.Actor, pipelineID string) ([]DealSummary, error) {
	deals, err := s.deals.List(ctx, actor.Scope(), pipelineID)
	if err != nil {
		return nil, err
	}
	out := make([]DealSummary, 0, len(deals))
	for i := range deals {
		out = append(out, summarize(&deals[i]))
	}
	return out, nil
}

// Deals returns the actor's deals as stored.
func (s *PipelineService) Deals(ctx context.Context, actor policy.Actor) ([]models.Deal, error) {
	return s.deals.List(ctx, actor.Scope(), "")
}

// MoveDeal puts a deal in another stage of its own pipeline. Any stage can
// be reached from any other.
func (s *PipelineService) MoveDeal(ctx context.Context, actor policy.Actor, dealID, stageID string) error {
	if dealID == "" || stageID == "" {
		return ErrInvalidID
	}
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return invalidIfMissing(err)
	}
	stage, err := s.pipelines.GetStage(ctx, stageID)
	if err != nil {
		return invalidIfMissing(err)
	}
	if deal.PipelineID != stage.PipelineID {
		return ErrPipelineMismatch
	}
	if !actor.CanMutate(deal.OwnerID) {
		return ErrForbidden
	}
	return invalidIfMissing(s.deals.UpdateStage(ctx, deal.ID, stage))
}

// DefaultPipeline returns the flagged default pipeline, or the first one,
// seeding "Default" with four stages when there is none.
func (s *PipelineService) DefaultPipeline(ctx context.Context) (*models.Pipeline, error) {
	return s.pipelines.FirstOrSeed(ctx, DefaultPipelineName, DefaultStages)
}

// Kanban builds the default board with the actor's deals in each column.
func (s *PipelineService) Kanban(ctx context.Context, actor policy.Actor) (*Kanban, error) {
	pipeline, err := s.DefaultPipeline(ctx)
	if err != nil {
		return nil, err
	}
	deals, err := s.deals.List(ctx, actor.Scope(), pipeline.ID)
	if err != nil {
		return nil, err
	}

	byStage := make(map[string][]DealSummary)
	for i := range deals {
		byStage[deals[i].StageID] = append(byStage[deals[i].StageID], summarize(&deals[i]))
	}
	board := &Kanban{Pipeline: pipeline, Columns: make([]KanbanColumn, 0, len(pipeline.Stages))}
	for _, stage := range pipeline.Stages {
		col := KanbanColumn{Stage: stage, Deals: byStage[stage.ID]}
		if col.Deals == nil {
			col.Deals = []DealSummary{}
		}
		board.Columns = append(board.Columns, col)
	}
	return board, nil
}

// GetDeal returns a deal the actor may change.
func (s *PipelineService) GetDeal(ctx context.Context, actor policy.Actor, id string) (*models.Deal, error) {
	deal, err := s.deals.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if !actor.CanMutate(deal.OwnerID) {
		return nil, ErrForbidden
	}
	return deal, nil
}

func (s *PipelineService) CreateDeal(ctx context.Context, actor policy.Actor, in DealInput) (*models.Deal, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	deal := &models.Deal{Status: models.DealOpen, OwnerID: actor.OwnerForCreate(optional(in.OwnerID))}
	if err := s.applyDealInput(ctx, actor, deal, in); err != nil {
		return nil, err
	}
	if err := s.deals.Create(ctx, deal); err != nil {
		return nil, fromRepo(err)
	}
	return deal, nil
}

func (s *PipelineService) UpdateDeal(ctx context.Context, actor policy.Actor, id string, in DealInput) (*models.Deal, error) {
	deal, err := s.GetDeal(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.applyDealInput(ctx, actor, deal, in); err != nil {
		return nil, err
	}
	deal.OwnerID = actor.OwnerForUpdate(deal.OwnerID, optional(in.OwnerID))
	if err := s.deals.Update(ctx, deal); err != nil {
		return nil, fromRepo(err)
	}
	return deal, nil
}

func (s *PipelineService) DeleteDeal(ctx context.Context, actor policy.Actor, id string) error {
	if _, err := s.GetDeal(ctx, actor, id); err != nil {
		return err
	}
	return fromRepo(s.deals.Delete(ctx, id))
}

// ListPipelines returns every pipeline with ordered stages.
func (s *PipelineService) ListPipelines(ctx context.Context) ([]models.Pipeline, error) {
	return s.pipelines.List(ctx)
}

// CreatePipeline stores a pipeline; stage order follows the input order.
func (s *PipelineService) CreatePipeline(ctx context.Context, in PipelineInput) (*models.Pipeline, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	p := &models.Pipeline{Name: in.Name, IsDefault: in.IsDefault}
	seen := make(map[string]bool, len(in.Stages))
	for _, name := range in.Stages {
		name = strings.TrimSpace(name)
		if seen[strings.ToLower(name)] {
			return nil, fmt.Errorf("%w: stage %q appears twice", ErrValidation, name)
		}
		seen[strings.ToLower(name)] = true
		p.Stages = append(p.Stages, models.Stage{Name: name, Position: len(p.Stages) + 1})
	}
	if err := s.pipelines.Create(ctx, p); err != nil {
		return nil, fromRepo(err)
	}
	return p, nil
}

// SetDefault flags the pipeline as default and clears every other flag.
func (s *PipelineService) SetDefault(ctx context.Context, id string) error {
	return fromRepo(s.pipelines.SetDefault(ctx, id))
}

func (s *PipelineService) applyDealInput(ctx context.Context, actor policy.Actor, deal *models.Deal, in DealInput) error {
	pipeline, err := s.resolvePipeline(ctx, in.PipelineID)
	if err != nil {
		return err
	}
	if err := s.checkLinks(ctx, actor, deal, in); err != nil {
		return err
	}
	stageID := in.StageID
	if stageID == "" {
		if deal.PipelineID == pipeline.ID && deal.StageID != "" {
			stageID = deal.StageID
		} else if len(pipeline.Stages) > 0 {
			stageID = pipeline.Stages[0].ID
		}
	}
	if !hasStage(pipeline, stageID) {
		return ErrPipelineMismatch
	}

	var expected *time.Time
	if in.ExpectedClose != "" {
		t, err := time.Parse(dateLayout, in.ExpectedClose)
		if err != nil {
			return fmt.Errorf("%w: expected_close must be YYYY-MM-DD", ErrValidation)
		}
		expected = &t
	}

	deal.Title = strings.TrimSpace(in.Title)
	deal.OrganizationID = optional(in.OrganizationID)
	deal.ContactID = optional(in.ContactID)
	deal.Amount = in.Amount
	deal.PipelineID = pipeline.ID
	deal.StageID = stageID
	deal.ExpectedClose = expected
	if status := models.DealStatus(in.Status); status.Valid() {
		deal.Status = status
	}
	return nil
}

// checkLinks requires a newly linked organization or contact to be visible
// to the actor. Links the deal already carries are kept as they are.
func (s *PipelineService) checkLinks(ctx context.Context, actor policy.Actor, deal *models.Deal, in DealInput) error {
	if id := in.OrganizationID; id != "" && !sameID(deal.OrganizationID, id) {
		org, err := s.organizations.GetByID(ctx, id)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("%w: unknown organization", ErrValidation)
		case err != nil:
			return err
		case !actor.CanMutate(org.OwnerID):
			return fmt.Errorf("%w: unknown organization", ErrValidation)
		}
	}
	if id := in.ContactID; id != "" && !sameID(deal.ContactID, id) {
		_, err := s.doctors.Get(ctx, actor, id)
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
			return fmt.Errorf("%w: unknown contact", ErrValidation)
		case err != nil:
			return err
		}
	}
	return nil
}

func sameID(current *string, id string) bool {
	return current != nil && *current == id
}

func (s *PipelineService) resolvePipeline(ctx context.Context, id string) (*models.Pipeline, error) {
	if id == "" {
		return s.DefaultPipeline(ctx)
	}
	p, err := s.pipelines.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	return p, nil
}

func hasStage(p *models.Pipeline, stageID string) bool {
	for _, st := range p.Stages {
		if st.ID == stageID {
			return true
		}
	}
	return false
}

func summarize(d *models.Deal) DealSummary {
	out := DealSummary{
		ID:      d.ID,
		Title:   d.Title,
		Amount:  d.Amount,
		StageID: d.StageID,
		Status:  string(d.Status),
	}
	if d.Organization != nil {
		out.Org = d.Organization.Name
	}
	if d.Contact != nil {
		out.Contact = d.Contact.Name
	}
	return out
}

// invalidIfMissing reports unknown ids on the move endpoint as ErrInvalidID.
func invalidIfMissing(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidID
	}
	return fromRepo(err)
}
