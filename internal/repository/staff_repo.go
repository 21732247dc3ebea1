package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"studiobooking/internal/domain"
)

type StaffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// staffMemberModel: one row per staff user, user_id is unique so a staff
// user belongs to at most one studio.
type staffMemberModel struct {
	ID         int64           `gorm:"column:id;primaryKey"`
	UserID     int64           `gorm:"column:user_id;not null;uniqueIndex"`
	StudioID   int64           `gorm:"column:studio_id;not null;index"`
	Position   *string         `gorm:"column:position;type:varchar(100)"`
	HourlyRate decimal.Decimal `gorm:"column:hourly_rate;type:numeric(12,2);not null;default:0"`
	CreatedAt  time.Time       `gorm:"column:created_at"`
}

func (staffMemberModel) TableName() string { return "staff_members" }

func toDomainStaff(m staffMemberModel) domain.StaffMember {
	return domain.StaffMember{
		ID:         m.ID,
		UserID:     m.UserID,
		StudioID:   m.StudioID,
		Position:   derefString(m.Position),
		HourlyRate: m.HourlyRate,
		CreatedAt:  m.CreatedAt,
	}
}

// Create adds a staff membership. A user already on a studio's staff
// yields ErrDuplicate.
func (r *StaffRepository) Create(ctx context.Context, s *domain.StaffMember) error {
	m := staffMemberModel{
		UserID:     s.UserID,
		StudioID:   s.StudioID,
		Position:   nullableString(s.Position),
		HourlyRate: s.HourlyRate,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	*s = toDomainStaff(m)
	return nil
}

func (r *StaffRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.StaffMember, error) {
	if len(ids) == 0 {
		return []domain.StaffMember{}, nil
	}
	var rows []staffMemberModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.StaffMember, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainStaff(m))
	}
	return out, nil
}

func (r *StaffRepository) GetByUserID(ctx context.Context, userID int64) (*domain.StaffMember, error) {
	var m staffMemberModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	s := toDomainStaff(m)
	return &s, nil
}

// StudioOf returns the studio the user staffs, if any.
func (r *StaffRepository) StudioOf(ctx context.Context, userID int64) (int64, bool, error) {
	s, err := r.GetByUserID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return s.StudioID, true, nil
}

func (r *StaffRepository) ListByStudio(ctx context.Context, studioID int64) ([]domain.StaffMember, error) {
	var rows []staffMemberModel
	err := r.db.WithContext(ctx).
		Where("studio_id = ?", studioID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.StaffMember, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainStaff(m))
	}
	return out, nil
}
