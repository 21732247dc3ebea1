package repository

import (
	"context"
	"time"

	"studiobooking/internal/domain"

	"gorm.io/gorm"
)

type StudioFilters struct {
	City    string
	OwnerID int64
	Limit   int
	Offset  int
}

type StudioRepository struct {
	db *gorm.DB
}

func NewStudioRepository(db *gorm.DB) *StudioRepository {
	return &StudioRepository{db: db}
}

type studioModel struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	OwnerID     int64     `gorm:"column:owner_id;not null;index"`
	Name        string    `gorm:"column:name;type:varchar(255);not null"`
	Description *string   `gorm:"column:description;type:text"`
	Address     string    `gorm:"column:address;type:varchar(500)"`
	City        string    `gorm:"column:city;type:varchar(100);index"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`

	Rooms []roomModel `gorm:"foreignKey:StudioID"`
}

func (studioModel) TableName() string { return "studios" }

func toDomainStudio(m studioModel) *domain.Studio {
	s := &domain.Studio{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Description: derefString(m.Description),
		Address:     m.Address,
		City:        m.City,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for _, rm := range m.Rooms {
		s.Rooms = append(s.Rooms, *toDomainRoom(rm))
	}
	return s
}

func (r *StudioRepository) Create(ctx context.Context, s *domain.Studio) error {
	m := studioModel{
		OwnerID:     s.OwnerID,
		Name:        s.Name,
		Description: nullableString(s.Description),
		Address:     s.Address,
		City:        s.City,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	*s = *toDomainStudio(m)
	return nil
}

// GetAll returns studios with optional filters, newest first.
func (r *StudioRepository) GetAll(ctx context.Context, f StudioFilters) ([]domain.Studio, int64, error) {
	var rows []studioModel
	var total int64

	q := r.db.WithContext(ctx).Model(&studioModel{})
	if f.City != "" {
		q = q.Where("city = ?", f.City)
	}
	if f.OwnerID != 0 {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.
		Order("created_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]domain.Studio, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainStudio(m))
	}
	return out, total, nil
}

// GetByID fetches a studio without its rooms.
func (r *StudioRepository) GetByID(ctx context.Context, id int64) (*domain.Studio, error) {
	var m studioModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return toDomainStudio(m), nil
}

// GetWithRooms fetches a studio together with its active rooms.
func (r *StudioRepository) GetWithRooms(ctx context.Context, id int64) (*domain.Studio, error) {
	var m studioModel
	err := r.db.WithContext(ctx).
		Preload("Rooms", "is_active = ?", true).
		First(&m, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return toDomainStudio(m), nil
}
