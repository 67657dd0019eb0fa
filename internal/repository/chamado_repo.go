package repository

import (
	"context"
	"time"

	"rncdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChamadoRepository interface {
	Create(ctx context.Context, c *model.ChamadoLider) error
	// ListRecentes returns chamados created after `desde`, newest first.
	ListRecentes(ctx context.Context, ambiente string, desde time.Time) ([]model.ChamadoLider, error)
	MarcarLido(ctx context.Context, id uuid.UUID) error
}

type chamadoRepo struct{ db *gorm.DB }

func NewChamadoRepository(db *gorm.DB) ChamadoRepository { return &chamadoRepo{db: db} }

func (r *chamadoRepo) Create(ctx context.Context, c *model.ChamadoLider) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *chamadoRepo) ListRecentes(ctx context.Context, ambiente string, desde time.Time) ([]model.ChamadoLider, error) {
	var chamados []model.ChamadoLider
	err := r.db.WithContext(ctx).
		Where("ambiente = ? AND created_at > ?", ambiente, desde).
		Order("created_at DESC").
		Find(&chamados).Error
	return chamados, err
}

func (r *chamadoRepo) MarcarLido(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.ChamadoLider{}).Where("id = ?", id).Update("lido", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
