package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"studiobooking/internal/domain"
)

type EquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

type equipmentModel struct {
	ID         int64           `gorm:"column:id;primaryKey"`
	StudioID   int64           `gorm:"column:studio_id;not null;index"`
	Name       string          `gorm:"column:name;type:varchar(255);not null"`
	Category   *string         `gorm:"column:category;type:varchar(100)"`
	Quantity   int             `gorm:"column:quantity;not null;default:1"`
	HourlyRate decimal.Decimal `gorm:"column:hourly_rate;type:numeric(12,2);not null;default:0"`
	CreatedAt  time.Time       `gorm:"column:created_at"`
}

func (equipmentModel) TableName() string { return "equipment" }

func toDomainEquipment(m equipmentModel) domain.Equipment {
	return domain.Equipment{
		ID:         m.ID,
		StudioID:   m.StudioID,
		Name:       m.Name,
		Category:   derefString(m.Category),
		Quantity:   m.Quantity,
		HourlyRate: m.HourlyRate,
		CreatedAt:  m.CreatedAt,
	}
}

func (r *EquipmentRepository) Create(ctx context.Context, e *domain.Equipment) error {
	m := equipmentModel{
		StudioID:   e.StudioID,
		Name:       e.Name,
		Category:   nullableString(e.Category),
		Quantity:   e.Quantity,
		HourlyRate: e.HourlyRate,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	*e = toDomainEquipment(m)
	return nil
}

// GetByIDs returns the equipment rows that exist among ids.
func (r *EquipmentRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Equipment, error) {
	if len(ids) == 0 {
		return []domain.Equipment{}, nil
	}
	var rows []equipmentModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Equipment, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainEquipment(m))
	}
	return out, nil
}

func (r *EquipmentRepository) ListByStudio(ctx context.Context, studioID int64) ([]domain.Equipment, error) {
	var rows []equipmentModel
	err := r.db.WithContext(ctx).
		Where("studio_id = ?", studioID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Equipment, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainEquipment(m))
	}
	return out, nil
}
