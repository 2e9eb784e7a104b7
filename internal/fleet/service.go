package fleet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"easybus/internal/shared/apperrors"
	"easybus/internal/shared/config"
	"easybus/internal/shared/constants"
	"easybus/pkg/cache"
	"easybus/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// AvailabilityCounter reports effectively available seats per schedule
type AvailabilityCounter interface {
	AvailableCounts(ctx context.Context, scheduleIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type Service interface {
	AddCity(ctx context.Context, req AddCityRequest) (*City, error)
	ListCities(ctx context.Context) ([]City, error)
	AddBus(ctx context.Context, req AddBusRequest) (*Bus, error)
	AddRoute(ctx context.Context, req AddRouteRequest) (*Route, error)
	CreateSchedule(ctx context.Context, req CreateScheduleRequest) (*ScheduleResponse, error)
	SearchSchedules(ctx context.Context, q SearchQuery) (*SearchResponse, error)
}

type service struct {
	repo    Repository
	counter AvailabilityCounter
	cache   cache.Service
	cfg     *config.Config
	log     *logger.Logger
}

func NewService(repo Repository, counter AvailabilityCounter, cacheSvc cache.Service, cfg *config.Config) Service {
	if cacheSvc == nil {
		cacheSvc = cache.NewNoop()
	}
	return &service{
		repo:    repo,
		counter: counter,
		cache:   cacheSvc,
		cfg:     cfg,
		log:     logger.GetDefault().WithComponent("fleet"),
	}
}

//  CITIES

func (s *service) AddCity(ctx context.Context, req AddCityRequest) (*City, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("City name is required")
	}

	city := &City{Name: name}
	if err := s.repo.CreateCity(ctx, city); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict(fmt.Sprintf("City '%s' already exists", name))
		}
		return nil, apperrors.Internal("Failed to create city", err)
	}

	if _, err := s.cache.Incr(ctx, constants.CACHE_KEY_CITIES_GEN); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate city cache", slog.Any("error", err))
	}
	return city, nil
}

func (s *service) ListCities(ctx context.Context) ([]City, error) {
	store := s.cache
	key, err := cache.VersionedKey(ctx, s.cache, constants.CACHE_KEY_CITIES_ALL, constants.CACHE_KEY_CITIES_GEN)
	if err != nil {
		s.log.WarnContext(ctx, "city cache unavailable, reading store", slog.Any("error", err))
		store = cache.NewNoop()
	}

	var cities []City
	err = store.GetOrSet(ctx, key, s.citiesTTL(), func() (interface{}, error) {
		return s.repo.ListCities(ctx)
	}, &cities)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch cities", err)
	}
	return cities, nil
}

func (s *service) citiesTTL() time.Duration {
	if s.cfg != nil && s.cfg.Redis.CitiesTTL > 0 {
		return s.cfg.Redis.CitiesTTL
	}
	return constants.TTL_STATIC_SHORT
}

//  BUSES

func (s *service) AddBus(ctx context.Context, req AddBusRequest) (*Bus, error) {
	name := strings.TrimSpace(req.Name)
	number := strings.TrimSpace(req.Number)
	busType := strings.TrimSpace(req.Type)
	if name == "" || number == "" || busType == "" {
		return nil, apperrors.Validation("Bus name, number and type are required")
	}
	if req.TotalSeats <= 0 {
		return nil, apperrors.Validation("Total seats must be greater than 0")
	}

	bus := &Bus{
		Name:       name,
		Number:     number,
		Type:       busType,
		TotalSeats: req.TotalSeats,
	}
	for _, label := range GenerateSeatLabels(req.TotalSeats) {
		bus.Seats = append(bus.Seats, Seat{Label: label})
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		return tx.CreateBus(ctx, bus)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict(fmt.Sprintf("Bus number '%s' already exists", number))
		}
		return nil, apperrors.Internal("Failed to create bus", err)
	}
	return bus, nil
}

//  ROUTES

func (s *service) AddRoute(ctx context.Context, req AddRouteRequest) (*Route, error) {
	sourceID, err := uuid.Parse(req.SourceCityID)
	if err != nil {
		return nil, apperrors.Validation("Invalid source city ID")
	}
	destinationID, err := uuid.Parse(req.DestinationCityID)
	if err != nil {
		return nil, apperrors.Validation("Invalid destination city ID")
	}
	if sourceID == destinationID {
		return nil, apperrors.Validation("Source and destination cities must be different")
	}

	for _, id := range []uuid.UUID{sourceID, destinationID} {
		if _, err := s.repo.GetCityByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("City " + id.String())
			}
			return nil, apperrors.Internal("Failed to fetch city", err)
		}
	}

	route := &Route{SourceCityID: sourceID, DestinationCityID: destinationID}
	if err := s.repo.CreateRoute(ctx, route); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("Route already exists")
		}
		return nil, apperrors.Internal("Failed to create route", err)
	}
	return route, nil
}

//  SCHEDULES

// CreateSchedule stores the schedule and one AVAILABLE inventory row per seat of its bus
func (s *service) CreateSchedule(ctx context.Context, req CreateScheduleRequest) (*ScheduleResponse, error) {
	busID, err := uuid.Parse(req.BusID)
	if err != nil {
		return nil, apperrors.Validation("Invalid bus ID")
	}
	routeID, err := uuid.Parse(req.RouteID)
	if err != nil {
		return nil, apperrors.Validation("Invalid route ID")
	}
	if req.Price <= 0 {
		return nil, apperrors.Validation("Price must be greater than 0")
	}
	travelDate, err := time.Parse(dateLayout, req.TravelDate)
	if err != nil {
		return nil, apperrors.Validation("Travel date must be in YYYY-MM-DD format")
	}
	departure, err := time.Parse(time.RFC3339, req.DepartureTime)
	if err != nil {
		return nil, apperrors.Validation("Departure time must be an RFC3339 timestamp")
	}
	arrival, err := time.Parse(time.RFC3339, req.ArrivalTime)
	if err != nil {
		return nil, apperrors.Validation("Arrival time must be an RFC3339 timestamp")
	}
	if !arrival.After(departure) {
		return nil, apperrors.Validation("Arrival time must be after departure time")
	}

	var resp ScheduleResponse
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		bus, err := tx.GetBusWithSeats(ctx, busID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Bus")
			}
			return apperrors.Internal("Failed to fetch bus", err)
		}
		if len(bus.Seats) == 0 {
			return apperrors.Internal("Bus has no seats configured", nil)
		}

		route, err := tx.GetRouteByID(ctx, routeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Route")
			}
			return apperrors.Internal("Failed to fetch route", err)
		}

		schedule := &Schedule{
			BusID:         bus.ID,
			RouteID:       route.ID,
			TravelDate:    travelDate,
			DepartureTime: departure,
			ArrivalTime:   arrival,
			Price:         req.Price,
		}
		if err := tx.CreateSchedule(ctx, schedule); err != nil {
			return apperrors.Internal("Failed to create schedule", err)
		}

		seatIDs := make([]uuid.UUID, 0, len(bus.Seats))
		for _, seat := range bus.Seats {
			seatIDs = append(seatIDs, seat.ID)
		}
		if err := tx.CreateAvailabilityRows(ctx, schedule.ID, seatIDs); err != nil {
			return apperrors.Internal("Failed to initialize seat availability", err)
		}

		bus.Seats = nil
		schedule.Bus = bus
		schedule.Route = route
		resp = ScheduleResponse{Schedule: schedule, SeatsAdded: len(seatIDs)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchSchedules lists schedules on the route for a date that still have free seats
func (s *service) SearchSchedules(ctx context.Context, q SearchQuery) (*SearchResponse, error) {
	sourceID, err := uuid.Parse(q.SourceCityID)
	if err != nil {
		return nil, apperrors.Validation("Invalid source city ID")
	}
	destinationID, err := uuid.Parse(q.DestinationCityID)
	if err != nil {
		return nil, apperrors.Validation("Invalid destination city ID")
	}
	travelDate, err := time.Parse(dateLayout, q.TravelDate)
	if err != nil {
		return nil, apperrors.Validation("Travel date must be in YYYY-MM-DD format")
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 || limit > 100 {
		limit = 10
	}

	resp := &SearchResponse{Page: page, Limit: limit, Results: []ScheduleSummary{}}

	route, err := s.repo.FindRoute(ctx, sourceID, destinationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resp, nil
		}
		return nil, apperrors.Internal("Failed to fetch route", err)
	}
	resp.RouteID = route.ID

	schedules, total, err := s.repo.ListSchedules(ctx, route.ID, travelDate, (page-1)*limit, limit)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch schedules", err)
	}
	resp.Total = total
	if len(schedules) == 0 {
		return resp, nil
	}

	ids := make([]uuid.UUID, 0, len(schedules))
	for _, sc := range schedules {
		ids = append(ids, sc.ID)
	}
	counts, err := s.counter.AvailableCounts(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("Failed to count available seats", err)
	}

	for _, sc := range schedules {
		available := counts[sc.ID]
		if available == 0 {
			continue
		}
		summary := ScheduleSummary{
			ScheduleID:     sc.ID,
			BusID:          sc.BusID,
			TravelDate:     sc.TravelDate.Format(dateLayout),
			DepartureTime:  sc.DepartureTime,
			ArrivalTime:    sc.ArrivalTime,
			Price:          sc.Price,
			AvailableSeats: available,
		}
		if sc.Bus != nil {
			summary.BusName = sc.Bus.Name
			summary.BusNumber = sc.Bus.Number
			summary.BusType = sc.Bus.Type
		}
		resp.Results = append(resp.Results, summary)
	}
	return resp, nil
}
