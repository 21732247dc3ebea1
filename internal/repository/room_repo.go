package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"studiobooking/internal/domain"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

type roomModel struct {
	ID          int64           `gorm:"column:id;primaryKey"`
	StudioID    int64           `gorm:"column:studio_id;not null;index"`
	Name        string          `gorm:"column:name;type:varchar(255);not null"`
	Description *string         `gorm:"column:description;type:text"`
	Capacity    int             `gorm:"column:capacity;not null;default:1"`
	HourlyRate  decimal.Decimal `gorm:"column:hourly_rate;type:numeric(12,2);not null"`
	IsActive    bool            `gorm:"column:is_active;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
}

func (roomModel) TableName() string { return "rooms" }

func toDomainRoom(m roomModel) *domain.Room {
	return &domain.Room{
		ID:          m.ID,
		StudioID:    m.StudioID,
		Name:        m.Name,
		Description: derefString(m.Description),
		Capacity:    m.Capacity,
		HourlyRate:  m.HourlyRate,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	m := roomModel{
		StudioID:    room.StudioID,
		Name:        room.Name,
		Description: nullableString(room.Description),
		Capacity:    room.Capacity,
		HourlyRate:  room.HourlyRate,
		IsActive:    room.IsActive,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	*room = *toDomainRoom(m)
	return nil
}

func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	var m roomModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return toDomainRoom(m), nil
}

func (r *RoomRepository) ListByStudio(ctx context.Context, studioID int64) ([]domain.Room, error) {
	var rows []roomModel
	err := r.db.WithContext(ctx).
		Where("studio_id = ?", studioID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Room, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainRoom(m))
	}
	return out, nil
}
