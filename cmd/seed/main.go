package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"studiobooking/internal/config"
	"studiobooking/internal/database"
	"studiobooking/internal/domain"
	"studiobooking/internal/modules/booking"
	"studiobooking/internal/pkg/logger"
	"studiobooking/internal/repository"
)

// logNotifier records notifications in the seed log instead of delivering them.
type logNotifier struct{ log *zap.Logger }

func (n logNotifier) Notify(_ context.Context, event string, recipient int64, _ map[string]any) error {
	n.log.Debug("notification", zap.String("event", event), zap.Int64("recipient", recipient))
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.Init(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, lg)
	if err != nil {
		lg.Fatal("db connect failed", zap.Error(err))
	}
	if err := repository.Migrate(db); err != nil {
		lg.Fatal("migration failed", zap.Error(err))
	}

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// Cleanup old data (children first)
	lg.Info("cleaning old data")
	for _, table := range []string{
		"notifications", "booking_staff", "booking_equipment", "bookings",
		"staff_members", "equipment", "rooms", "studios", "users",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			lg.Fatal("cleanup failed", zap.String("table", table), zap.Error(err))
		}
	}

	users := repository.NewUserRepository(db)
	mkUser := func(email, password, name string, role domain.UserRole) *domain.User {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			lg.Fatal("hash password", zap.Error(err))
		}
		u := &domain.User{Email: email, PasswordHash: string(hash), Name: name, Role: role}
		if err := users.Create(ctx, u); err != nil {
			lg.Fatal("create user", zap.String("email", email), zap.Error(err))
		}
		lg.Info("user created", zap.String("email", email), zap.String("password", password), zap.String("role", string(role)))
		return u
	}

	// ================== USERS ==================
	owners := []*domain.User{
		mkUser("aidar@loudroom.kz", "owner123", "Aidar", domain.RoleStudioOwner),
		mkUser("gulnaz@basement.kz", "owner123", "Gulnaz", domain.RoleStudioOwner),
	}
	musicians := []*domain.User{
		mkUser("asel@mail.kz", "client123", "Asel", domain.RoleMusician),
		mkUser("bekzat@gmail.com", "client123", "Bekzat", domain.RoleMusician),
		mkUser("dina@yandex.kz", "client123", "Dina", domain.RoleMusician),
	}
	engineers := []*domain.User{
		mkUser("timur@loudroom.kz", "staff123", "Timur", domain.RoleStaff),
		mkUser("saule@basement.kz", "staff123", "Saule", domain.RoleStaff),
	}

	// ================== CATALOG ==================
	studioRepo := repository.NewStudioRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	staffRepo := repository.NewStaffRepository(db)

	type studioKit struct {
		studio    *domain.Studio
		rooms     []*domain.Room
		equipment []*domain.Equipment
		staff     *domain.StaffMember
	}
	kits := make([]studioKit, 0, len(owners))

	for i, owner := range owners {
		studio := &domain.Studio{
			OwnerID:     owner.ID,
			Name:        fmt.Sprintf("Rehearsal Point %d", i+1),
			Description: "Rehearsal rooms with backline",
			Address:     fmt.Sprintf("Abay ave %d", 100+i),
			City:        "Almaty",
		}
		must(lg, "create studio", studioRepo.Create(ctx, studio))
		kit := studioKit{studio: studio}

		for j := 1; j <= 3; j++ {
			room := &domain.Room{
				StudioID:   studio.ID,
				Name:       fmt.Sprintf("Room %d", j),
				Capacity:   3 + rng.Intn(6),
				HourlyRate: decimal.NewFromInt(int64(20 + 10*rng.Intn(5))),
				IsActive:   true,
			}
			must(lg, "create room", roomRepo.Create(ctx, room))
			kit.rooms = append(kit.rooms, room)
		}

		for _, item := range []struct {
			name, category string
			qty            int
		}{
			{"Shure SM58", "microphone", 4},
			{"Marshall JCM800", "amplifier", 1},
			{"Pearl Export kit", "drums", 1},
		} {
			eq := &domain.Equipment{StudioID: studio.ID, Name: item.name, Category: item.category, Quantity: item.qty}
			must(lg, "create equipment", equipmentRepo.Create(ctx, eq))
			kit.equipment = append(kit.equipment, eq)
		}

		kit.staff = &domain.StaffMember{
			UserID:     engineers[i].ID,
			StudioID:   studio.ID,
			Position:   "sound engineer",
			HourlyRate: decimal.NewFromInt(15),
		}
		must(lg, "create staff", staffRepo.Create(ctx, kit.staff))
		kits = append(kits, kit)
	}

	// ================== BOOKINGS ==================
	// Bookings go through the engine, so random picks that collide are
	// rejected exactly as they would be over HTTP.
	engine := booking.NewService(repository.NewBookingRepository(db), repository.NewDirectory(db), logNotifier{lg}, lg.Named("booking"))

	created, rejected := 0, 0
	day := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	for i := 0; i < 30; i++ {
		kit := kits[rng.Intn(len(kits))]
		client := musicians[rng.Intn(len(musicians))]
		room := kit.rooms[rng.Intn(len(kit.rooms))]

		start := day.AddDate(0, 0, rng.Intn(7)).Add(time.Duration(10+rng.Intn(10)) * time.Hour)
		req := booking.CreateBookingRequest{
			RoomID:    room.ID,
			StartTime: start,
			EndTime:   start.Add(time.Duration(1+rng.Intn(3)) * time.Hour),
			Notes:     fmt.Sprintf("Rehearsal %d", i+1),
		}
		if rng.Intn(2) == 0 {
			eq := kit.equipment[rng.Intn(len(kit.equipment))]
			req.Equipment = []booking.EquipmentItem{{EquipmentID: eq.ID, Quantity: 1}}
		}
		if rng.Intn(3) == 0 {
			req.StaffIDs = []int64{kit.staff.ID}
		}

		b, err := engine.CreateBooking(ctx, booking.Actor{UserID: client.ID, Role: client.Role}, req)
		if err != nil {
			var conflict *booking.ConflictError
			if errors.As(err, &conflict) {
				rejected++
				continue
			}
			lg.Fatal("create booking", zap.Error(err))
		}
		created++

		if rng.Intn(2) == 0 {
			owner := booking.Actor{UserID: kit.studio.OwnerID, Role: domain.RoleStudioOwner}
			if _, err := engine.ConfirmBooking(ctx, owner, b.ID); err != nil {
				lg.Warn("confirm booking", zap.Int64("booking_id", b.ID), zap.Error(err))
			}
		}
	}

	lg.Info("seed completed",
		zap.Int("studios", len(kits)),
		zap.Int("bookings", created),
		zap.Int("rejected_conflicts", rejected),
	)
}

func must(lg *zap.Logger, what string, err error) {
	if err != nil {
		lg.Fatal(what, zap.Error(err))
	}
}
