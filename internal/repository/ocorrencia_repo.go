package repository

import (
	"context"
	"time"

	"rncdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OcorrenciaRepository interface {
	Create(ctx context.Context, o *model.Ocorrencia) error
	// Update rewrites the record and replaces its item list wholesale, in one
	// transaction; partial item updates are not a thing in this domain.
	Update(ctx context.Context, o *model.Ocorrencia) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Ocorrencia, error)
	// ListDesde returns the window [desde, now] for one ambiente, newest first.
	ListDesde(ctx context.Context, ambiente string, desde time.Time) ([]model.Ocorrencia, error)
}

type ocorrenciaRepo struct{ db *gorm.DB }

func NewOcorrenciaRepository(db *gorm.DB) OcorrenciaRepository { return &ocorrenciaRepo{db: db} }

func (r *ocorrenciaRepo) Create(ctx context.Context, o *model.Ocorrencia) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *ocorrenciaRepo) Update(ctx context.Context, o *model.Ocorrencia) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ocorrencia_id = ?", o.ID).Delete(&model.ItemOcorrencia{}).Error; err != nil {
			return err
		}
		for i := range o.Itens {
			o.Itens[i].ID = uuid.Nil
			o.Itens[i].OcorrenciaID = o.ID
		}
		return tx.Save(o).Error
	})
}

func (r *ocorrenciaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ocorrencia_id = ?", id).Delete(&model.ItemOcorrencia{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Ocorrencia{}, id).Error
	})
}

func (r *ocorrenciaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Ocorrencia, error) {
	var o model.Ocorrencia
	err := r.db.WithContext(ctx).Preload("Itens").First(&o, id).Error
	return &o, err
}

func (r *ocorrenciaRepo) ListDesde(ctx context.Context, ambiente string, desde time.Time) ([]model.Ocorrencia, error) {
	var ocorrencias []model.Ocorrencia
	err := r.db.WithContext(ctx).
		Preload("Itens").
		Where("ambiente = ? AND created_at >= ?", ambiente, desde).
		Order("created_at DESC").
		Find(&ocorrencias).Error
	return ocorrencias, err
}
