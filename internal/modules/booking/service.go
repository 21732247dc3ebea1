package booking

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"studiobooking/internal/domain"
	"studiobooking/internal/pkg/metrics"
)

const (
	maxNotesLen  = 2000
	maxReasonLen = 500

	defaultListLimit = 20
	maxListLimit     = 100
	sweepBatchSize   = 100
)

type Service struct {
	store    Store
	dir      Directory
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewService(store Store, dir Directory, notifier Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:    store,
		dir:      dir,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateBooking(ctx context.Context, actor Actor, req CreateBookingRequest) (b *domain.Booking, err error) {
	defer func() { observe("create", err) }()

	if actor.UserID == 0 {
		return nil, ErrForbidden
	}
	w := domain.Window{Start: req.StartTime.UTC(), End: req.EndTime.UTC()}
	if !w.Valid() {
		return nil, ErrInvalidWindow
	}
	if w.Start.Before(s.now()) {
		return nil, ErrStartInPast
	}
	if len(req.Notes) > maxNotesLen {
		return nil, validationf("notes exceed %d characters", maxNotesLen)
	}

	room, err := s.dir.GetRoom(ctx, req.RoomID)
	if err != nil {
		return nil, s.fail("get room", err)
	}
	if !room.IsActive {
		return nil, validationf("room %d is not available for booking", room.ID)
	}

	// Lookups happen outside the transaction; their failures are reported
	// in resource order: room conflict, equipment, then staff.
	equipment, eqErr := s.resolveEquipment(ctx, room.StudioID, req.Equipment)
	staff, staffErr := s.resolveStaff(ctx, room.StudioID, req.StaffIDs)

	total, err := ComputePrice(room, w)
	if err != nil {
		return nil, err
	}

	b = &domain.Booking{
		RoomID:      room.ID,
		StudioID:    room.StudioID,
		ClientID:    actor.UserID,
		StartTime:   w.Start,
		EndTime:     w.End,
		Status:      domain.BookingPending,
		TotalAmount: total,
		Notes:       strings.TrimSpace(req.Notes),
		Equipment:   equipment,
		Staff:       staff,
	}

	err = s.store.Atomic(ctx, func(tx Store) error {
		if err := ensureFree(ctx, tx, reservation{roomID: room.ID}, w, 0); err != nil {
			return err
		}
		if eqErr != nil {
			return eqErr
		}
		if err := ensureFree(ctx, tx, reservation{equipmentIDs: equipmentIDs(equipment)}, w, 0); err != nil {
			return err
		}
		if staffErr != nil {
			return staffErr
		}
		if err := ensureFree(ctx, tx, reservation{staffIDs: staffIDs(staff)}, w, 0); err != nil {
			return err
		}
		return tx.InsertBooking(ctx, b)
	})
	if err != nil {
		// Two creates racing for overlapping windows surface as either error.
		if errors.Is(err, domain.ErrOverlap) || errors.Is(err, domain.ErrConcurrentUpdate) {
			metrics.BookingConflicts.WithLabelValues(string(domain.ResourceRoom)).Inc()
			return nil, &ConflictError{Kind: domain.ResourceRoom, ResourceID: room.ID}
		}
		return nil, s.fail("create booking", err)
	}

	s.notify(ctx, domain.EventBookingCreated, s.ownerOf(ctx, b.StudioID), b)
	return b, nil
}

func (s *Service) GetBooking(ctx context.Context, actor Actor, id int64) (b *domain.Booking, err error) {
	defer func() { observe("get", err) }()

	b, _, err = s.load(ctx, actor, id)
	return b, err
}

func (s *Service) ListBookings(ctx context.Context, actor Actor, req ListBookingsRequest) (list []domain.Booking, total int64, err error) {
	defer func() { observe("list", err) }()

	if actor.UserID == 0 {
		return nil, 0, ErrForbidden
	}

	f := domain.BookingFilter{
		ParticipantID: actor.UserID,
		RoomID:        req.RoomID,
		StudioID:      req.StudioID,
		Limit:         req.Limit,
		Offset:        req.Offset,
	}
	if req.Status != "" {
		st := domain.BookingStatus(req.Status)
		if !st.Valid() {
			return nil, 0, validationf("unknown status %q", req.Status)
		}
		f.Status = st
	}
	if !req.From.IsZero() {
		from := req.From.UTC()
		f.From = &from
	}
	if !req.To.IsZero() {
		to := req.To.UTC()
		f.To = &to
	}
	if f.From != nil && f.To != nil && !f.To.After(*f.From) {
		return nil, 0, ErrInvalidWindow
	}
	if f.Limit <= 0 || f.Limit > maxListLimit {
		f.Limit = defaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	if actor.Role == domain.RoleStaff {
		studioID, ok, err := s.dir.GetStaffMembership(ctx, actor.UserID)
		if err != nil {
			return nil, 0, s.fail("get staff membership", err)
		}
		if ok {
			f.StaffStudioID = studioID
		}
	}

	list, total, err = s.store.ListBookings(ctx, f)
	if err != nil {
		return nil, 0, s.fail("list bookings", err)
	}
	return list, total, nil
}

func (s *Service) UpdateBooking(ctx context.Context, actor Actor, id int64, req UpdateBookingRequest) (b *domain.Booking, err error) {
	defer func() { observe("update", err) }()

	if req.empty() {
		return nil, validationf("nothing to update")
	}
	b, rel, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !CanAct(rel, b, ActionUpdate) || !CanPatch(rel, req) {
		return nil, ErrForbidden
	}

	var patch domain.BookingPatch
	var res reservation

	if req.Notes != nil {
		if len(*req.Notes) > maxNotesLen {
			return nil, validationf("notes exceed %d characters", maxNotesLen)
		}
		notes := strings.TrimSpace(*req.Notes)
		patch.Notes = &notes
	}
	if req.Equipment != nil || req.StaffIDs != nil {
		if IsTerminal(b.Status) {
			return nil, ErrInvalidTransition
		}
	}
	if req.Equipment != nil {
		equipment, err := s.resolveEquipment(ctx, b.StudioID, *req.Equipment)
		if err != nil {
			return nil, err
		}
		patch.Equipment = &equipment
		res.equipmentIDs = equipmentIDs(equipment)
	}
	if req.StaffIDs != nil {
		staff, err := s.resolveStaff(ctx, b.StudioID, *req.StaffIDs)
		if err != nil {
			return nil, err
		}
		patch.Staff = &staff
		res.staffIDs = staffIDs(staff)
	}

	var target domain.BookingStatus
	if req.Status != nil {
		target = *req.Status
		if !target.Valid() {
			return nil, validationf("unknown status %q", target)
		}
		if len(req.Reason) > maxReasonLen {
			return nil, validationf("reason exceeds %d characters", maxReasonLen)
		}
	}

	err = s.store.Atomic(ctx, func(tx Store) error {
		cur, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if cur.Status != b.Status {
			return ErrInvalidTransition
		}
		p := patch
		if target != "" {
			tp, err := transitionPatch(actor, cur.Status, target, req.Reason, s.now())
			if err != nil {
				return err
			}
			p.Status = tp.Status
			p.CancellationReason = tp.CancellationReason
			p.CancelledBy = tp.CancelledBy
			p.CancelledAt = tp.CancelledAt
		}
		if err := ensureFree(ctx, tx, res, cur.Window(), cur.ID); err != nil {
			return err
		}
		return tx.UpdateBooking(ctx, id, p)
	})
	if err != nil {
		return nil, s.fail("update booking", err)
	}

	updated, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, s.fail("reload booking", err)
	}

	event := domain.EventBookingUpdated
	if target != "" {
		event = statusEvent(target)
	}
	s.notifyParties(ctx, event, actor, updated)
	return updated, nil
}

func (s *Service) ConfirmBooking(ctx context.Context, actor Actor, id int64) (b *domain.Booking, err error) {
	defer func() { observe("confirm", err) }()

	b, rel, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !CanAct(rel, b, ActionConfirm) {
		return nil, ErrForbidden
	}
	if b, err = s.transition(ctx, actor, id, domain.BookingConfirmed, ""); err != nil {
		return nil, err
	}
	s.notify(ctx, domain.EventBookingConfirmed, b.ClientID, b)
	return b, nil
}

func (s *Service) CancelBooking(ctx context.Context, actor Actor, id int64, reason string) (b *domain.Booking, err error) {
	defer func() { observe("cancel", err) }()

	if len(reason) > maxReasonLen {
		return nil, validationf("reason exceeds %d characters", maxReasonLen)
	}
	b, rel, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !CanAct(rel, b, ActionCancel) {
		return nil, ErrForbidden
	}
	if b, err = s.transition(ctx, actor, id, domain.BookingCancelled, reason); err != nil {
		return nil, err
	}
	s.notifyParties(ctx, domain.EventBookingCancelled, actor, b)
	return b, nil
}

func (s *Service) DeleteBooking(ctx context.Context, actor Actor, id int64) (err error) {
	defer func() { observe("delete", err) }()

	b, rel, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if !CanAct(rel, b, ActionDelete) {
		return ErrForbidden
	}
	err = s.store.Atomic(ctx, func(tx Store) error {
		cur, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if !CanAct(rel, cur, ActionDelete) {
			return ErrForbidden
		}
		return tx.DeleteBooking(ctx, id)
	})
	if err != nil {
		return s.fail("delete booking", err)
	}
	return nil
}

// RecordDeposit stores the deposit taken for a booking. A positive amount
// marks the deposit as paid.
func (s *Service) RecordDeposit(ctx context.Context, actor Actor, id int64, amount decimal.Decimal) (b *domain.Booking, err error) {
	defer func() { observe("deposit", err) }()

	b, rel, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !CanAct(rel, b, ActionDeposit) {
		return nil, ErrForbidden
	}
	if amount.IsNegative() {
		return nil, validationf("deposit must not be negative")
	}
	if amount.GreaterThan(b.TotalAmount) {
		return nil, validationf("deposit exceeds total amount %s", b.TotalAmount.StringFixed(2))
	}

	amount = amount.Round(2)
	paid := amount.IsPositive()
	err = s.store.Atomic(ctx, func(tx Store) error {
		cur, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if IsTerminal(cur.Status) {
			return ErrInvalidTransition
		}
		return tx.UpdateBooking(ctx, id, domain.BookingPatch{DepositAmount: &amount, DepositPaid: &paid})
	})
	if err != nil {
		return nil, s.fail("record deposit", err)
	}
	b, err = s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, s.fail("reload booking", err)
	}
	return b, nil
}

// BusySlots lists the reserved windows of a room inside [from, to).
func (s *Service) BusySlots(ctx context.Context, roomID int64, from, to time.Time) ([]TimeSlot, error) {
	w := domain.Window{Start: from.UTC(), End: to.UTC()}
	if !w.Valid() {
		return nil, ErrInvalidWindow
	}
	if _, err := s.dir.GetRoom(ctx, roomID); err != nil {
		return nil, s.fail("get room", err)
	}
	rows, err := s.store.FindOverlapping(ctx, domain.ResourceRoom, roomID, w, 0)
	if err != nil {
		return nil, s.fail("find overlapping", err)
	}

	out := make([]TimeSlot, 0, len(rows))
	for _, b := range rows {
		if b.Status == domain.BookingCancelled {
			continue
		}
		out = append(out, TimeSlot{Start: b.StartTime, End: b.EndTime})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// CompleteFinished moves confirmed bookings whose end time has passed to
// completed and returns how many were moved.
func (s *Service) CompleteFinished(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	done := 0
	for {
		batch, _, err := s.store.ListBookings(ctx, domain.BookingFilter{
			Status:    domain.BookingConfirmed,
			EndBefore: &now,
			Limit:     sweepBatchSize,
		})
		if err != nil {
			return done, s.fail("list finished bookings", err)
		}

		progressed := 0
		for i := range batch {
			b, err := s.transition(ctx, Actor{}, batch[i].ID, domain.BookingCompleted, "")
			if err != nil {
				s.log.Warn("complete booking failed", zap.Int64("booking_id", batch[i].ID), zap.Error(err))
				continue
			}
			progressed++
			observe("complete", nil)
			s.notify(ctx, domain.EventBookingCompleted, b.ClientID, b)
		}
		done += progressed

		if len(batch) < sweepBatchSize || progressed == 0 {
			return done, nil
		}
	}
}

// load fetches a booking and the actor's relation to it, refusing actors
// who may not even view it.
func (s *Service) load(ctx context.Context, actor Actor, id int64) (*domain.Booking, Relation, error) {
	if actor.UserID == 0 {
		return nil, RelNone, ErrForbidden
	}
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, RelNone, s.fail("get booking", err)
	}
	rel, err := s.relationOf(ctx, actor, b)
	if err != nil {
		return nil, RelNone, err
	}
	if !CanAct(rel, b, ActionView) {
		return nil, rel, ErrForbidden
	}
	return b, rel, nil
}

func (s *Service) relationOf(ctx context.Context, actor Actor, b *domain.Booking) (Relation, error) {
	rel := RelNone
	if b.ClientID == actor.UserID {
		rel |= RelClient
	}

	studio, err := s.dir.GetStudio(ctx, b.StudioID)
	switch {
	case err == nil:
		if studio.OwnerID == actor.UserID {
			rel |= RelOwner
		}
	case !errors.Is(err, domain.ErrNotFound):
		return RelNone, s.fail("get studio", err)
	}

	if actor.Role == domain.RoleStaff {
		studioID, ok, err := s.dir.GetStaffMembership(ctx, actor.UserID)
		if err != nil {
			return RelNone, s.fail("get staff membership", err)
		}
		if ok && studioID == b.StudioID {
			rel |= RelStaff
		}
	}
	return rel, nil
}

func (s *Service) transition(ctx context.Context, actor Actor, id int64, to domain.BookingStatus, reason string) (*domain.Booking, error) {
	err := s.store.Atomic(ctx, func(tx Store) error {
		cur, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		patch, err := transitionPatch(actor, cur.Status, to, reason, s.now())
		if err != nil {
			return err
		}
		return tx.UpdateBooking(ctx, id, patch)
	})
	if err != nil {
		return nil, s.fail("transition booking", err)
	}
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, s.fail("reload booking", err)
	}
	return b, nil
}

func transitionPatch(actor Actor, from, to domain.BookingStatus, reason string, now time.Time) (domain.BookingPatch, error) {
	if !CanTransition(from, to) {
		return domain.BookingPatch{}, ErrInvalidTransition
	}
	p := domain.BookingPatch{Status: &to}
	if to == domain.BookingCancelled {
		reason = strings.TrimSpace(reason)
		p.CancellationReason = &reason
		p.CancelledAt = &now
		if actor.UserID != 0 {
			by := actor.UserID
			p.CancelledBy = &by
		}
	}
	return p, nil
}

func (s *Service) resolveEquipment(ctx context.Context, studioID int64, items []EquipmentItem) ([]domain.BookingEquipment, error) {
	if len(items) == 0 {
		return []domain.BookingEquipment{}, nil
	}

	qty := make(map[int64]int, len(items))
	for _, it := range items {
		if it.EquipmentID <= 0 {
			return nil, validationf("invalid equipment id %d", it.EquipmentID)
		}
		if it.Quantity < 0 {
			return nil, validationf("invalid quantity for equipment %d", it.EquipmentID)
		}
		n := it.Quantity
		if n == 0 {
			n = 1
		}
		qty[it.EquipmentID] += n
	}
	ids := sortedKeys(qty)

	found, err := s.dir.GetEquipment(ctx, ids)
	if err != nil {
		return nil, s.fail("get equipment", err)
	}
	byID := make(map[int64]domain.Equipment, len(found))
	for _, e := range found {
		byID[e.ID] = e
	}

	out := make([]domain.BookingEquipment, 0, len(ids))
	for _, id := range ids {
		e, ok := byID[id]
		if !ok {
			return nil, validationf("equipment %d not found", id)
		}
		if e.StudioID != studioID {
			return nil, validationf("equipment %d does not belong to this studio", id)
		}
		if e.Quantity > 0 && qty[id] > e.Quantity {
			return nil, validationf("equipment %d: only %d available", id, e.Quantity)
		}
		out = append(out, domain.BookingEquipment{EquipmentID: id, Quantity: qty[id]})
	}
	return out, nil
}

func (s *Service) resolveStaff(ctx context.Context, studioID int64, ids []int64) ([]domain.BookingStaff, error) {
	if len(ids) == 0 {
		return []domain.BookingStaff{}, nil
	}

	set := make(map[int64]int, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, validationf("invalid staff id %d", id)
		}
		set[id] = 1
	}
	uniq := sortedKeys(set)

	found, err := s.dir.GetStaff(ctx, uniq)
	if err != nil {
		return nil, s.fail("get staff", err)
	}
	byID := make(map[int64]domain.StaffMember, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}

	out := make([]domain.BookingStaff, 0, len(uniq))
	for _, id := range uniq {
		m, ok := byID[id]
		if !ok {
			return nil, validationf("staff member %d not found", id)
		}
		if m.StudioID != studioID {
			return nil, validationf("staff member %d does not work at this studio", id)
		}
		out = append(out, domain.BookingStaff{StaffID: id})
	}
	return out, nil
}

func (s *Service) ownerOf(ctx context.Context, studioID int64) int64 {
	studio, err := s.dir.GetStudio(ctx, studioID)
	if err != nil {
		s.log.Warn("studio owner lookup failed", zap.Int64("studio_id", studioID), zap.Error(err))
		return 0
	}
	return studio.OwnerID
}

// notifyParties tells the client and the studio owner about b, skipping
// whoever caused the event.
func (s *Service) notifyParties(ctx context.Context, event string, actor Actor, b *domain.Booking) {
	if b.ClientID != actor.UserID {
		s.notify(ctx, event, b.ClientID, b)
	}
	if owner := s.ownerOf(ctx, b.StudioID); owner != actor.UserID && owner != b.ClientID {
		s.notify(ctx, event, owner, b)
	}
}

func (s *Service) notify(ctx context.Context, event string, recipient int64, b *domain.Booking) {
	if s.notifier == nil || recipient == 0 {
		return
	}
	payload := map[string]any{
		"booking_id": b.ID,
		"room_id":    b.RoomID,
		"studio_id":  b.StudioID,
		"status":     string(b.Status),
		"start_time": b.StartTime,
		"end_time":   b.EndTime,
	}
	if err := s.notifier.Notify(ctx, event, recipient, payload); err != nil {
		s.log.Warn("booking notification dropped",
			zap.String("event", event),
			zap.Int64("booking_id", b.ID),
			zap.Int64("recipient", recipient),
			zap.Error(err),
		)
	}
}

// fail maps store and directory errors onto the engine's taxonomy and logs
// anything that is not the caller's fault.
func (s *Service) fail(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, domain.ErrOverlap):
		return ErrResourceConflict
	case errors.Is(err, domain.ErrConcurrentUpdate):
		return ErrConcurrentChange
	case errors.Is(err, ErrInternal),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrResourceConflict),
		errors.Is(err, ErrInvalidTransition):
		return err
	}
	s.log.Error("booking operation failed", zap.String("op", op), zap.Error(err))
	return internal(op, err)
}

func statusEvent(st domain.BookingStatus) string {
	switch st {
	case domain.BookingConfirmed:
		return domain.EventBookingConfirmed
	case domain.BookingCancelled:
		return domain.EventBookingCancelled
	case domain.BookingCompleted:
		return domain.EventBookingCompleted
	}
	return domain.EventBookingUpdated
}

func observe(op string, err error) {
	metrics.BookingOperations.WithLabelValues(op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrResourceConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	}
	return "error"
}

func equipmentIDs(items []domain.BookingEquipment) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.EquipmentID)
	}
	return out
}

func staffIDs(items []domain.BookingStaff) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.StaffID)
	}
	return out
}

func sortedKeys(m map[int64]int) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
