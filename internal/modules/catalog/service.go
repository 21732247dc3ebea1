package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"studiobooking/internal/domain"
	"studiobooking/internal/repository"

	"go.uber.org/zap"
)

type Service struct {
	studios   StudioStore
	rooms     RoomStore
	equipment EquipmentStore
	staff     StaffStore
	users     UserLookup
	log       *zap.Logger
}

func NewService(
	studios StudioStore,
	rooms RoomStore,
	equipment EquipmentStore,
	staff StaffStore,
	users UserLookup,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		studios:   studios,
		rooms:     rooms,
		equipment: equipment,
		staff:     staff,
		users:     users,
		log:       log,
	}
}

/* ---------- STUDIOS ---------- */

func (s *Service) CreateStudio(ctx context.Context, ownerID int64, req CreateStudioRequest) (*domain.Studio, error) {
	studio := &domain.Studio{
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
	}
	if err := s.studios.Create(ctx, studio); err != nil {
		return nil, fmt.Errorf("create studio: %w", err)
	}
	s.log.Info("studio created", zap.Int64("studio_id", studio.ID), zap.Int64("owner_id", ownerID))
	return studio, nil
}

func (s *Service) ListStudios(ctx context.Context, f repository.StudioFilters) ([]domain.Studio, int64, error) {
	return s.studios.GetAll(ctx, f)
}

func (s *Service) GetStudio(ctx context.Context, id int64) (*domain.Studio, error) {
	studio, err := s.studios.GetWithRooms(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return studio, nil
}

/* ---------- ROOMS ---------- */

func (s *Service) CreateRoom(ctx context.Context, userID, studioID int64, req CreateRoomRequest) (*domain.Room, error) {
	if _, err := s.ownedStudio(ctx, userID, studioID); err != nil {
		return nil, err
	}
	if req.HourlyRate.IsNegative() {
		return nil, ErrInvalidRate
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	room := &domain.Room{
		StudioID:    studioID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Capacity:    req.Capacity,
		HourlyRate:  req.HourlyRate.Round(2),
		IsActive:    active,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return room, nil
}

func (s *Service) GetRoom(ctx context.Context, id int64) (*RoomDetails, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	items, err := s.equipment.ListByStudio(ctx, room.StudioID)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	return &RoomDetails{Room: room, Equipment: items}, nil
}

/* ---------- EQUIPMENT ---------- */

// AddEquipment registers equipment with the studio that owns roomID. Any
// room of the studio can then book it.
func (s *Service) AddEquipment(ctx context.Context, userID, roomID int64, req CreateEquipmentRequest) (*domain.Equipment, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, notFound(err)
	}
	if _, err := s.ownedStudio(ctx, userID, room.StudioID); err != nil {
		return nil, err
	}
	if req.HourlyRate.IsNegative() {
		return nil, ErrInvalidRate
	}

	item := &domain.Equipment{
		StudioID:   room.StudioID,
		Name:       strings.TrimSpace(req.Name),
		Category:   req.Category,
		Quantity:   req.Quantity,
		HourlyRate: req.HourlyRate.Round(2),
	}
	if err := s.equipment.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create equipment: %w", err)
	}
	return item, nil
}

/* ---------- STAFF ---------- */

func (s *Service) AddStaff(ctx context.Context, userID, studioID int64, req AddStaffRequest) (*domain.StaffMember, error) {
	if _, err := s.ownedStudio(ctx, userID, studioID); err != nil {
		return nil, err
	}
	if req.HourlyRate.IsNegative() {
		return nil, ErrInvalidRate
	}

	var (
		user *domain.User
		err  error
	)
	if req.UserID != 0 {
		user, err = s.users.GetByID(ctx, req.UserID)
	} else {
		user, err = s.users.GetByEmail(ctx, req.Email)
	}
	if err != nil {
		return nil, notFound(err)
	}
	if user.Role != domain.RoleStaff {
		return nil, ErrNotStaffUser
	}

	member := &domain.StaffMember{
		UserID:     user.ID,
		StudioID:   studioID,
		Position:   req.Position,
		HourlyRate: req.HourlyRate.Round(2),
	}
	if err := s.staff.Create(ctx, member); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyStaff
		}
		return nil, fmt.Errorf("create staff member: %w", err)
	}
	s.log.Info("staff added",
		zap.Int64("studio_id", studioID),
		zap.Int64("user_id", user.ID),
		zap.Int64("staff_id", member.ID),
	)
	return member, nil
}

func (s *Service) ListStaff(ctx context.Context, userID, studioID int64) ([]domain.StaffMember, error) {
	if _, err := s.ownedStudio(ctx, userID, studioID); err != nil {
		return nil, err
	}
	return s.staff.ListByStudio(ctx, studioID)
}

func (s *Service) ownedStudio(ctx context.Context, userID, studioID int64) (*domain.Studio, error) {
	studio, err := s.studios.GetByID(ctx, studioID)
	if err != nil {
		return nil, notFound(err)
	}
	if studio.OwnerID != userID {
		return nil, ErrForbidden
	}
	return studio, nil
}

func notFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
