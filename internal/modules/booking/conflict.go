package booking

import (
	"context"

	"studiobooking/internal/domain"
	"studiobooking/internal/pkg/metrics"
)

// CheckConflict reports whether any non-cancelled booking other than
// excludeID reserves the resource during w.
func (s *Service) CheckConflict(ctx context.Context, kind domain.ResourceKind, resourceID int64, w domain.Window, excludeID int64) (bool, error) {
	return checkConflict(ctx, s.store, kind, resourceID, w, excludeID)
}

func checkConflict(ctx context.Context, st Store, kind domain.ResourceKind, resourceID int64, w domain.Window, excludeID int64) (bool, error) {
	if !w.Valid() {
		return false, ErrInvalidWindow
	}
	rows, err := st.FindOverlapping(ctx, kind, resourceID, w, excludeID)
	if err != nil {
		return false, err
	}
	for i := range rows {
		if rows[i].ID == excludeID || rows[i].Status == domain.BookingCancelled {
			continue
		}
		if rows[i].Window().Overlaps(w) {
			return true, nil
		}
	}
	return false, nil
}

// reservation is the set of resources one booking holds.
type reservation struct {
	roomID       int64
	equipmentIDs []int64
	staffIDs     []int64
}

// ensureFree checks every resource of r independently and returns a
// *ConflictError for the first one already taken.
func ensureFree(ctx context.Context, st Store, r reservation, w domain.Window, excludeID int64) error {
	check := func(kind domain.ResourceKind, id int64) error {
		busy, err := checkConflict(ctx, st, kind, id, w, excludeID)
		if err != nil {
			return err
		}
		if busy {
			metrics.BookingConflicts.WithLabelValues(string(kind)).Inc()
			return &ConflictError{Kind: kind, ResourceID: id}
		}
		return nil
	}

	if r.roomID != 0 {
		if err := check(domain.ResourceRoom, r.roomID); err != nil {
			return err
		}
	}
	for _, id := range r.equipmentIDs {
		if err := check(domain.ResourceEquipment, id); err != nil {
			return err
		}
	}
	for _, id := range r.staffIDs {
		if err := check(domain.ResourceStaff, id); err != nil {
			return err
		}
	}
	return nil
}
