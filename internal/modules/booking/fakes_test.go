package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"studiobooking/internal/domain"
)

// memStore is an in-memory Store. Atomic serializes whole transactions,
// which is the guarantee the postgres implementation provides.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID int64
	rows   map[int64]domain.Booking
	dir    *memDir

	findErr   error
	atomicErr error
}

func newMemStore(dir *memDir) *memStore {
	return &memStore{rows: make(map[int64]domain.Booking), dir: dir}
}

func (s *memStore) Atomic(_ context.Context, fn func(tx Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if s.atomicErr != nil {
		return s.atomicErr
	}
	return fn(s)
}

func (s *memStore) FindOverlapping(_ context.Context, kind domain.ResourceKind, id int64, w domain.Window, excludeID int64) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}

	var out []domain.Booking
	for _, b := range s.rows {
		if b.ID == excludeID || b.Status == domain.BookingCancelled || !b.Window().Overlaps(w) {
			continue
		}
		if holds(b, kind, id) {
			out = append(out, clone(b))
		}
	}
	return out, nil
}

func holds(b domain.Booking, kind domain.ResourceKind, id int64) bool {
	switch kind {
	case domain.ResourceRoom:
		return b.RoomID == id
	case domain.ResourceEquipment:
		for _, e := range b.Equipment {
			if e.EquipmentID == id {
				return true
			}
		}
	case domain.ResourceStaff:
		for _, st := range b.Staff {
			if st.StaffID == id {
				return true
			}
		}
	}
	return false
}

func (s *memStore) InsertBooking(_ context.Context, b *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b.ID = s.nextID
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	s.rows[b.ID] = clone(*b)
	return nil
}

func (s *memStore) GetBooking(_ context.Context, id int64) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := clone(b)
	return &c, nil
}

func (s *memStore) UpdateBooking(_ context.Context, id int64, p domain.BookingPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Notes != nil {
		b.Notes = *p.Notes
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.Equipment != nil {
		b.Equipment = append([]domain.BookingEquipment{}, *p.Equipment...)
	}
	if p.Staff != nil {
		b.Staff = append([]domain.BookingStaff{}, *p.Staff...)
	}
	if p.CancellationReason != nil {
		b.CancellationReason = *p.CancellationReason
	}
	if p.CancelledBy != nil {
		v := *p.CancelledBy
		b.CancelledBy = &v
	}
	if p.CancelledAt != nil {
		v := *p.CancelledAt
		b.CancelledAt = &v
	}
	if p.DepositAmount != nil {
		b.DepositAmount = decimal.NewNullDecimal(*p.DepositAmount)
	}
	if p.DepositPaid != nil {
		b.DepositPaid = *p.DepositPaid
	}
	b.UpdatedAt = time.Now().UTC()
	s.rows[id] = b
	return nil
}

func (s *memStore) DeleteBooking(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *memStore) ListBookings(_ context.Context, f domain.BookingFilter) ([]domain.Booking, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Booking
	for _, b := range s.rows {
		if f.ParticipantID != 0 || f.StaffStudioID != 0 {
			owner := int64(0)
			if st, ok := s.dir.studios[b.StudioID]; ok {
				owner = st.OwnerID
			}
			if b.ClientID != f.ParticipantID && owner != f.ParticipantID && b.StudioID != f.StaffStudioID {
				continue
			}
		}
		if f.RoomID != 0 && b.RoomID != f.RoomID {
			continue
		}
		if f.StudioID != 0 && b.StudioID != f.StudioID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.From != nil && !b.EndTime.After(*f.From) {
			continue
		}
		if f.To != nil && !b.StartTime.Before(*f.To) {
			continue
		}
		if f.EndBefore != nil && b.EndTime.After(*f.EndBefore) {
			continue
		}
		out = append(out, clone(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	total := int64(len(out))
	if f.Offset > len(out) {
		return []domain.Booking{}, total, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func clone(b domain.Booking) domain.Booking {
	b.Equipment = append([]domain.BookingEquipment{}, b.Equipment...)
	b.Staff = append([]domain.BookingStaff{}, b.Staff...)
	return b
}

type memDir struct {
	rooms     map[int64]*domain.Room
	studios   map[int64]*domain.Studio
	equipment map[int64]domain.Equipment
	staff     map[int64]domain.StaffMember
	users     map[int64]*domain.User

	lookupErr error
}

func (d *memDir) GetRoom(_ context.Context, id int64) (*domain.Room, error) {
	if r, ok := d.rooms[id]; ok {
		c := *r
		return &c, nil
	}
	return nil, domain.ErrNotFound
}

func (d *memDir) GetStudio(_ context.Context, id int64) (*domain.Studio, error) {
	if s, ok := d.studios[id]; ok {
		c := *s
		return &c, nil
	}
	return nil, domain.ErrNotFound
}

func (d *memDir) GetEquipment(_ context.Context, ids []int64) ([]domain.Equipment, error) {
	if d.lookupErr != nil {
		return nil, d.lookupErr
	}
	var out []domain.Equipment
	for _, id := range ids {
		if e, ok := d.equipment[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (d *memDir) GetStaff(_ context.Context, ids []int64) ([]domain.StaffMember, error) {
	if d.lookupErr != nil {
		return nil, d.lookupErr
	}
	var out []domain.StaffMember
	for _, id := range ids {
		if m, ok := d.staff[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (d *memDir) GetStaffMembership(_ context.Context, userID int64) (int64, bool, error) {
	for _, m := range d.staff {
		if m.UserID == userID {
			return m.StudioID, true, nil
		}
	}
	return 0, false, nil
}

func (d *memDir) GetUser(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := d.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, domain.ErrNotFound
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event string, recipient int64, payload map[string]any) error {
	args := m.Called(ctx, event, recipient, payload)
	return args.Error(0)
}

// Fixture ids.
const (
	ownerID    int64 = 1
	clientID   int64 = 2
	otherID    int64 = 3
	staffUser  int64 = 4
	strangerID int64 = 5

	studioID      int64 = 10
	otherStudioID int64 = 11

	roomA     int64 = 100
	roomB     int64 = 101
	roomOff   int64 = 102
	roomOther int64 = 103

	micID     int64 = 200
	ampID     int64 = 201
	foreignEq int64 = 202

	engineerID int64 = 300
	foreignSt  int64 = 301
)

var (
	owner    = Actor{UserID: ownerID, Role: domain.RoleStudioOwner}
	client   = Actor{UserID: clientID, Role: domain.RoleMusician}
	other    = Actor{UserID: otherID, Role: domain.RoleMusician}
	staff    = Actor{UserID: staffUser, Role: domain.RoleStaff}
	stranger = Actor{UserID: strangerID, Role: domain.RoleStudioOwner}
)

func newFixtureDir() *memDir {
	rate := decimal.RequireFromString("50.00")
	return &memDir{
		rooms: map[int64]*domain.Room{
			roomA:     {ID: roomA, StudioID: studioID, Name: "A", HourlyRate: rate, IsActive: true},
			roomB:     {ID: roomB, StudioID: studioID, Name: "B", HourlyRate: decimal.RequireFromString("30.00"), IsActive: true},
			roomOff:   {ID: roomOff, StudioID: studioID, Name: "Closed", HourlyRate: rate, IsActive: false},
			roomOther: {ID: roomOther, StudioID: otherStudioID, Name: "X", HourlyRate: rate, IsActive: true},
		},
		studios: map[int64]*domain.Studio{
			studioID:      {ID: studioID, OwnerID: ownerID, Name: "Main"},
			otherStudioID: {ID: otherStudioID, OwnerID: strangerID, Name: "Other"},
		},
		equipment: map[int64]domain.Equipment{
			micID:     {ID: micID, StudioID: studioID, Name: "Mic", Quantity: 2},
			ampID:     {ID: ampID, StudioID: studioID, Name: "Amp", Quantity: 1},
			foreignEq: {ID: foreignEq, StudioID: otherStudioID, Name: "Drum", Quantity: 1},
		},
		staff: map[int64]domain.StaffMember{
			engineerID: {ID: engineerID, UserID: staffUser, StudioID: studioID},
			foreignSt:  {ID: foreignSt, UserID: 99, StudioID: otherStudioID},
		},
		users: map[int64]*domain.User{
			ownerID:    {ID: ownerID, Role: domain.RoleStudioOwner},
			clientID:   {ID: clientID, Role: domain.RoleMusician},
			otherID:    {ID: otherID, Role: domain.RoleMusician},
			staffUser:  {ID: staffUser, Role: domain.RoleStaff},
			strangerID: {ID: strangerID, Role: domain.RoleStudioOwner},
		},
	}
}

// fixedNow is a Monday morning well before every fixture booking.
var fixedNow = time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return time.Date(2030, 1, 7, hour, min, 0, 0, time.UTC)
}

type harness struct {
	svc      *Service
	store    *memStore
	dir      *memDir
	notifier *MockNotifier
}

// newHarness returns a service whose notifier accepts every call.
func newHarness() *harness {
	dir := newFixtureDir()
	store := newMemStore(dir)
	n := new(MockNotifier)
	n.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	svc := NewService(store, dir, n, nil)
	svc.now = func() time.Time { return fixedNow }
	return &harness{svc: svc, store: store, dir: dir, notifier: n}
}

func (h *harness) book(actor Actor, room int64, start, end time.Time) (*domain.Booking, error) {
	return h.svc.CreateBooking(context.Background(), actor, CreateBookingRequest{
		RoomID:    room,
		StartTime: start,
		EndTime:   end,
	})
}
