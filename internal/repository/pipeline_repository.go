package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/policy"
)

// PipelineRepository stores pipelines and their stages.
type PipelineRepository interface {
	// FirstOrSeed returns the default pipeline (or the first one when none is
	// flagged). If no pipeline exists it creates one with the given stages.
	FirstOrSeed(ctx context.Context, name string, stageNames []string) (*models.Pipeline, error)
	List(ctx context.Context) ([]models.Pipeline, error)
	GetByID(ctx context.Context, id string) (*models.Pipeline, error)
	Create(ctx context.Context, p *models.Pipeline) error
	SetDefault(ctx context.Context, id string) error
	GetStage(ctx context.Context, id string) (*models.Stage, error)
}

// DealRepository stores deals.
type DealRepository interface {
	List(ctx context.Context, scope policy.Scope, pipelineID string) ([]models.Deal, error)
	GetByID(ctx context.Context, id string) (*models.Deal, error)
	Create(ctx context.Context, d *models.Deal) error
	Update(ctx context.Context, d *models.Deal) error
	// UpdateStage moves the deal to stage, touching only the stage column.
	// It matches nothing when the deal is in another pipeline.
	UpdateStage(ctx context.Context, dealID string, stage *models.Stage) error
	Delete(ctx context.Context, id string) error
}

func orderedStages(db *gorm.DB) *gorm.DB {
	return db.Order("position asc")
}

type pipelineRepository struct {
	db *gorm.DB
}

// NewPipelineRepository creates a gorm backed PipelineRepository.
func NewPipelineRepository(db *gorm.DB) PipelineRepository {
	return &pipelineRepository{db: db}
}

func (r *pipelineRepository) FirstOrSeed(ctx context.Context, name string, stageNames []string) (*models.Pipeline, error) {
	var pipeline models.Pipeline
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Preload("Stages", orderedStages).Order("is_default desc").Order("created_at asc")
		err := q.First(&pipeline).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		pipeline = models.Pipeline{Name: name, IsDefault: true}
		for i, stage := range stageNames {
			pipeline.Stages = append(pipeline.Stages, models.Stage{Name: stage, Position: i + 1})
		}
		return tx.Create(&pipeline).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &pipeline, nil
}

func (r *pipelineRepository) List(ctx context.Context) ([]models.Pipeline, error) {
	var pipelines []models.Pipeline
	if err := r.db.WithContext(ctx).Preload("Stages", orderedStages).Order("name asc").Find(&pipelines).Error; err != nil {
		return nil, err
	}
	return pipelines, nil
}

func (r *pipelineRepository) GetByID(ctx context.Context, id string) (*models.Pipeline, error) {
	var p models.Pipeline
	if err := r.db.WithContext(ctx).Preload("Stages", orderedStages).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// Create inserts the pipeline and its stages. A default pipeline clears the
// flag everywhere else in the same transaction.
func (r *pipelineRepository) Create(ctx context.Context, p *models.Pipeline) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.IsDefault {
			if err := tx.Model(&models.Pipeline{}).Where("is_default = ?", true).Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(p).Error
	}))
}

func (r *pipelineRepository) SetDefault(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Pipeline
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		if err := tx.Model(&models.Pipeline{}).Where("id <> ? AND is_default = ?", id, true).Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&p).Update("is_default", true).Error
	})
}

func (r *pipelineRepository) GetStage(ctx context.Context, id string) (*models.Stage, error) {
	var s models.Stage
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

type dealRepository struct {
	db *gorm.DB
}

// NewDealRepository creates a gorm backed DealRepository.
func NewDealRepository(db *gorm.DB) DealRepository {
	return &dealRepository{db: db}
}

// List returns deals most recently updated first, optionally for one pipeline.
func (r *dealRepository) List(ctx context.Context, scope policy.Scope, pipelineID string) ([]models.Deal, error) {
	q := ownedBy(r.db.WithContext(ctx).Preload("Organization").Preload("Contact"), scope).Order("updated_at desc")
	if pipelineID != "" {
		q = q.Where("pipeline_id = ?", pipelineID)
	}

	var deals []models.Deal
	if err := q.Find(&deals).Error; err != nil {
		return nil, err
	}
	return deals, nil
}

func (r *dealRepository) GetByID(ctx context.Context, id string) (*models.Deal, error) {
	var d models.Deal
	if err := r.db.WithContext(ctx).Preload("Organization").Preload("Contact").First(&d, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *dealRepository) Create(ctx context.Context, d *models.Deal) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(d).Error)
}

func (r *dealRepository) Update(ctx context.Context, d *models.Deal) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(d).Error)
}

func (r *dealRepository) UpdateStage(ctx context.Context, dealID string, stage *models.Stage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Deal{}).
			Where("id = ? AND pipeline_id = ?", dealID, stage.PipelineID).
			Update("stage_id", stage.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *dealRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Deal{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
