package fleet

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"easybus/internal/shared/apperrors"
	"easybus/pkg/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeRepo struct {
	cities    map[uuid.UUID]City
	buses     map[uuid.UUID]Bus
	routes    map[uuid.UUID]Route
	schedules []Schedule
	rows      map[uuid.UUID][]uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		cities: map[uuid.UUID]City{},
		buses:  map[uuid.UUID]Bus{},
		routes: map[uuid.UUID]Route{},
		rows:   map[uuid.UUID][]uuid.UUID{},
	}
}

func (f *fakeRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(f)
}

func (f *fakeRepo) CreateCity(ctx context.Context, city *City) error {
	for _, c := range f.cities {
		if c.Name == city.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	city.ID = uuid.New()
	f.cities[city.ID] = *city
	return nil
}

func (f *fakeRepo) GetCityByID(ctx context.Context, id uuid.UUID) (*City, error) {
	c, ok := f.cities[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (f *fakeRepo) ListCities(ctx context.Context) ([]City, error) {
	var out []City
	for _, c := range f.cities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeRepo) CreateBus(ctx context.Context, bus *Bus) error {
	for _, b := range f.buses {
		if b.Number == bus.Number {
			return gorm.ErrDuplicatedKey
		}
	}
	bus.ID = uuid.New()
	for i := range bus.Seats {
		bus.Seats[i].ID = uuid.New()
		bus.Seats[i].BusID = bus.ID
	}
	f.buses[bus.ID] = *bus
	return nil
}

func (f *fakeRepo) GetBusWithSeats(ctx context.Context, id uuid.UUID) (*Bus, error) {
	b, ok := f.buses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	b.Seats = append([]Seat(nil), b.Seats...)
	return &b, nil
}

func (f *fakeRepo) CreateRoute(ctx context.Context, route *Route) error {
	if _, err := f.FindRoute(ctx, route.SourceCityID, route.DestinationCityID); err == nil {
		return gorm.ErrDuplicatedKey
	}
	route.ID = uuid.New()
	f.routes[route.ID] = *route
	return nil
}

func (f *fakeRepo) GetRouteByID(ctx context.Context, id uuid.UUID) (*Route, error) {
	r, ok := f.routes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &r, nil
}

func (f *fakeRepo) FindRoute(ctx context.Context, sourceID, destinationID uuid.UUID) (*Route, error) {
	for _, r := range f.routes {
		if r.SourceCityID == sourceID && r.DestinationCityID == destinationID {
			return &r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) CreateSchedule(ctx context.Context, schedule *Schedule) error {
	schedule.ID = uuid.New()
	f.schedules = append(f.schedules, *schedule)
	return nil
}

func (f *fakeRepo) CreateAvailabilityRows(ctx context.Context, scheduleID uuid.UUID, seatIDs []uuid.UUID) error {
	f.rows[scheduleID] = append(f.rows[scheduleID], seatIDs...)
	return nil
}

func (f *fakeRepo) ListSchedules(ctx context.Context, routeID uuid.UUID, travelDate time.Time, offset, limit int) ([]Schedule, int64, error) {
	var matched []Schedule
	for _, sc := range f.schedules {
		if sc.RouteID == routeID && sc.TravelDate.Equal(travelDate) {
			bus := f.buses[sc.BusID]
			sc.Bus = &bus
			matched = append(matched, sc)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

type counterFunc func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error)

func (f counterFunc) AvailableCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	return f(ctx, ids)
}

func newTestService(repo *fakeRepo, counter AvailabilityCounter) Service {
	return NewService(repo, counter, cache.NewNoop(), nil)
}

func seedRoute(t *testing.T, svc Service) (City, City, *Route) {
	t.Helper()
	ctx := context.Background()
	pune, err := svc.AddCity(ctx, AddCityRequest{Name: "Pune"})
	if err != nil {
		t.Fatalf("AddCity() error = %v", err)
	}
	mumbai, err := svc.AddCity(ctx, AddCityRequest{Name: "Mumbai"})
	if err != nil {
		t.Fatalf("AddCity() error = %v", err)
	}
	route, err := svc.AddRoute(ctx, AddRouteRequest{SourceCityID: pune.ID.String(), DestinationCityID: mumbai.ID.String()})
	if err != nil {
		t.Fatalf("AddRoute() error = %v", err)
	}
	return *pune, *mumbai, route
}

func TestAddCity(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)
	ctx := context.Background()

	city, err := svc.AddCity(ctx, AddCityRequest{Name: "  Pune  "})
	if err != nil {
		t.Fatalf("AddCity() error = %v", err)
	}
	if city.Name != "Pune" {
		t.Errorf("name = %q, want trimmed", city.Name)
	}

	if _, err := svc.AddCity(ctx, AddCityRequest{Name: "Pune"}); !apperrors.IsConflict(err) {
		t.Errorf("duplicate city error = %v, want conflict", err)
	}
	if _, err := svc.AddCity(ctx, AddCityRequest{Name: "   "}); !apperrors.IsValidation(err) {
		t.Errorf("blank city error = %v, want validation", err)
	}

	cities, err := svc.ListCities(ctx)
	if err != nil || len(cities) != 1 {
		t.Fatalf("ListCities() = %v, %v", cities, err)
	}
}

func TestAddBusGeneratesSeats(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)

	bus, err := svc.AddBus(context.Background(), AddBusRequest{Name: "Shivneri", Number: "MH12AB1234", Type: "AC", TotalSeats: 3})
	if err != nil {
		t.Fatalf("AddBus() error = %v", err)
	}
	var labels []string
	for _, seat := range repo.buses[bus.ID].Seats {
		labels = append(labels, seat.Label)
	}
	if len(labels) != 3 || labels[0] != "A1" || labels[2] != "A3" {
		t.Errorf("labels = %v", labels)
	}

	_, err = svc.AddBus(context.Background(), AddBusRequest{Name: "Other", Number: "MH12AB1234", Type: "AC", TotalSeats: 2})
	if !apperrors.IsConflict(err) {
		t.Errorf("duplicate number error = %v, want conflict", err)
	}
	_, err = svc.AddBus(context.Background(), AddBusRequest{Name: "Zero", Number: "X", Type: "AC", TotalSeats: 0})
	if !apperrors.IsValidation(err) {
		t.Errorf("zero seats error = %v, want validation", err)
	}
}

func TestAddRouteValidation(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)
	pune, mumbai, _ := seedRoute(t, svc)
	ctx := context.Background()

	tests := []struct {
		name string
		req  AddRouteRequest
		kind apperrors.Kind
	}{
		{"same city", AddRouteRequest{pune.ID.String(), pune.ID.String()}, apperrors.KindValidation},
		{"bad id", AddRouteRequest{"nope", mumbai.ID.String()}, apperrors.KindValidation},
		{"unknown city", AddRouteRequest{pune.ID.String(), uuid.NewString()}, apperrors.KindNotFound},
		{"duplicate", AddRouteRequest{pune.ID.String(), mumbai.ID.String()}, apperrors.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddRoute(ctx, tt.req)
			if got := apperrors.KindOf(err); got != tt.kind {
				t.Errorf("kind = %q, want %q (err %v)", got, tt.kind, err)
			}
		})
	}
}

func TestCreateScheduleSeedsOneRowPerSeat(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	_, _, route := seedRoute(t, svc)
	bus, _ := svc.AddBus(context.Background(), AddBusRequest{Name: "Shivneri", Number: "MH12", Type: "AC", TotalSeats: 40})

	resp, err := svc.CreateSchedule(context.Background(), CreateScheduleRequest{
		BusID:         bus.ID.String(),
		RouteID:       route.ID.String(),
		TravelDate:    "2026-11-01",
		DepartureTime: "2026-11-01T08:00:00Z",
		ArrivalTime:   "2026-11-01T12:30:00Z",
		Price:         500,
	})
	if err != nil {
		t.Fatalf("CreateSchedule() error = %v", err)
	}
	if resp.SeatsAdded != 40 || len(repo.rows[resp.Schedule.ID]) != 40 {
		t.Errorf("seats added = %d, rows = %d, want 40", resp.SeatsAdded, len(repo.rows[resp.Schedule.ID]))
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range repo.rows[resp.Schedule.ID] {
		if seen[id] {
			t.Fatalf("seat %s seeded twice", id)
		}
		seen[id] = true
	}
}

func TestCreateScheduleRejects(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	_, _, route := seedRoute(t, svc)
	bus, _ := svc.AddBus(context.Background(), AddBusRequest{Name: "Shivneri", Number: "MH12", Type: "AC", TotalSeats: 2})

	seatless := Bus{ID: uuid.New(), Name: "Empty", Number: "E1", Type: "AC", TotalSeats: 1}
	repo.buses[seatless.ID] = seatless

	valid := CreateScheduleRequest{
		BusID:         bus.ID.String(),
		RouteID:       route.ID.String(),
		TravelDate:    "2026-11-01",
		DepartureTime: "2026-11-01T08:00:00Z",
		ArrivalTime:   "2026-11-01T12:30:00Z",
		Price:         500,
	}

	tests := []struct {
		name   string
		mutate func(r *CreateScheduleRequest)
		kind   apperrors.Kind
	}{
		{"zero price", func(r *CreateScheduleRequest) { r.Price = 0 }, apperrors.KindValidation},
		{"bad date", func(r *CreateScheduleRequest) { r.TravelDate = "01/11/2026" }, apperrors.KindValidation},
		{"arrival before departure", func(r *CreateScheduleRequest) { r.ArrivalTime = "2026-11-01T07:00:00Z" }, apperrors.KindValidation},
		{"unknown bus", func(r *CreateScheduleRequest) { r.BusID = uuid.NewString() }, apperrors.KindNotFound},
		{"unknown route", func(r *CreateScheduleRequest) { r.RouteID = uuid.NewString() }, apperrors.KindNotFound},
		{"bus without seats", func(r *CreateScheduleRequest) { r.BusID = seatless.ID.String() }, apperrors.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := svc.CreateSchedule(context.Background(), req)
			if got := apperrors.KindOf(err); got != tt.kind {
				t.Errorf("kind = %q, want %q (err %v)", got, tt.kind, err)
			}
		})
	}
	if len(repo.schedules) != 0 {
		t.Errorf("schedules created = %d, want 0", len(repo.schedules))
	}
}

func TestSearchSchedulesDropsSoldOut(t *testing.T) {
	repo := newFakeRepo()
	var soldOut uuid.UUID
	counter := counterFunc(func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
		out := map[uuid.UUID]int64{}
		for _, id := range ids {
			if id != soldOut {
				out[id] = 12
			}
		}
		return out, nil
	})
	svc := newTestService(repo, counter)
	pune, mumbai, route := seedRoute(t, svc)
	bus, _ := svc.AddBus(context.Background(), AddBusRequest{Name: "Shivneri", Number: "MH12", Type: "AC", TotalSeats: 12})

	for _, dep := range []string{"2026-11-01T08:00:00Z", "2026-11-01T18:00:00Z"} {
		resp, err := svc.CreateSchedule(context.Background(), CreateScheduleRequest{
			BusID: bus.ID.String(), RouteID: route.ID.String(), TravelDate: "2026-11-01",
			DepartureTime: dep, ArrivalTime: "2026-11-01T23:00:00Z", Price: 500,
		})
		if err != nil {
			t.Fatalf("CreateSchedule() error = %v", err)
		}
		soldOut = resp.Schedule.ID
	}

	result, err := svc.SearchSchedules(context.Background(), SearchQuery{
		SourceCityID: pune.ID.String(), DestinationCityID: mumbai.ID.String(), TravelDate: "2026-11-01",
	})
	if err != nil {
		t.Fatalf("SearchSchedules() error = %v", err)
	}
	if result.Page != 1 || result.Limit != 10 {
		t.Errorf("page/limit = %d/%d, want 1/10", result.Page, result.Limit)
	}
	if len(result.Results) != 1 || result.Results[0].AvailableSeats != 12 || result.Results[0].BusName != "Shivneri" {
		t.Fatalf("results = %+v", result.Results)
	}
	if result.Results[0].ScheduleID == soldOut {
		t.Errorf("sold out schedule returned")
	}
}

func TestSearchSchedulesUnknownRoute(t *testing.T) {
	counter := counterFunc(func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
		return nil, errors.New("must not be called")
	})
	svc := newTestService(newFakeRepo(), counter)

	result, err := svc.SearchSchedules(context.Background(), SearchQuery{
		SourceCityID: uuid.NewString(), DestinationCityID: uuid.NewString(), TravelDate: "2026-11-01",
	})
	if err != nil {
		t.Fatalf("SearchSchedules() error = %v", err)
	}
	if len(result.Results) != 0 || result.Total != 0 {
		t.Errorf("result = %+v, want empty", result)
	}

	_, err = svc.SearchSchedules(context.Background(), SearchQuery{
		SourceCityID: uuid.NewString(), DestinationCityID: uuid.NewString(), TravelDate: "tomorrow",
	})
	if !apperrors.IsValidation(err) {
		t.Errorf("bad date error = %v, want validation", err)
	}
}
