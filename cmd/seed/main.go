package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"easybus/internal/auth"
	"easybus/internal/fleet"
	"easybus/internal/shared/apperrors"
	"easybus/internal/shared/config"
	"easybus/internal/shared/database"

	"github.com/joho/godotenv"
)

type Seeder struct {
	db  *database.DB
	cfg *config.Config
}

func main() {
	fmt.Println("Starting EasyBus database seeder...")

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db, cfg: cfg}
	ctx := context.Background()

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}

	authService := auth.NewService(auth.NewRepository(db.GetPostgreSQL()), cfg)
	admin, err := authService.EnsureAdmin(ctx, email, password)
	if err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}
	fmt.Printf("Admin ready: %s (%s)\n", admin.Email, admin.ID)

	if strings.EqualFold(os.Getenv("SEED_DEMO"), "true") {
		if err := seeder.SeedDemo(ctx); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
	}

	fmt.Println("Seeding completed.")
}

// SeedDemo creates two cities, a bus, a route and a schedule for tomorrow
func (s *Seeder) SeedDemo(ctx context.Context) error {
	svc := fleet.NewService(fleet.NewRepository(s.db.PostgreSQL), nil, nil, s.cfg)

	source, err := s.city(ctx, svc, "Pune")
	if err != nil {
		return err
	}
	destination, err := s.city(ctx, svc, "Mumbai")
	if err != nil {
		return err
	}

	bus, err := svc.AddBus(ctx, fleet.AddBusRequest{Name: "Shivneri", Number: "MH12-DEMO-01", Type: "AC Seater", TotalSeats: 40})
	if err != nil {
		if apperrors.IsConflict(err) {
			fmt.Println("Demo data already present, skipping")
			return nil
		}
		return fmt.Errorf("add bus: %w", err)
	}

	route, err := svc.AddRoute(ctx, fleet.AddRouteRequest{SourceCityID: source.ID.String(), DestinationCityID: destination.ID.String()})
	if err != nil {
		return fmt.Errorf("add route: %w", err)
	}

	day := time.Now().UTC().AddDate(0, 0, 1)
	departure := time.Date(day.Year(), day.Month(), day.Day(), 7, 0, 0, 0, time.UTC)
	schedule, err := svc.CreateSchedule(ctx, fleet.CreateScheduleRequest{
		BusID:         bus.ID.String(),
		RouteID:       route.ID.String(),
		TravelDate:    departure.Format("2006-01-02"),
		DepartureTime: departure.Format(time.RFC3339),
		ArrivalTime:   departure.Add(3 * time.Hour).Format(time.RFC3339),
		Price:         450,
	})
	if err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}

	fmt.Printf("Demo schedule %s: %s -> %s, %d seats\n", schedule.Schedule.ID, source.Name, destination.Name, schedule.SeatsAdded)
	return nil
}

func (s *Seeder) city(ctx context.Context, svc fleet.Service, name string) (*fleet.City, error) {
	city, err := svc.AddCity(ctx, fleet.AddCityRequest{Name: name})
	if err == nil {
		return city, nil
	}
	if !apperrors.IsConflict(err) {
		return nil, fmt.Errorf("add city %s: %w", name, err)
	}

	cities, err := svc.ListCities(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cities {
		if cities[i].Name == name {
			return &cities[i], nil
		}
	}
	return nil, fmt.Errorf("city %s not found after conflict", name)
}
