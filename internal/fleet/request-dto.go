package fleet

type AddCityRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
}

type AddBusRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=255"`
	Number     string `json:"number" binding:"required,min=1,max=50"`
	Type       string `json:"type" binding:"required,min=1,max=50"`
	TotalSeats int    `json:"total_seats" binding:"required,min=1,max=100"`
}

type AddRouteRequest struct {
	SourceCityID      string `json:"source_city_id" binding:"required,uuid"`
	DestinationCityID string `json:"destination_city_id" binding:"required,uuid"`
}

type CreateScheduleRequest struct {
	BusID         string  `json:"bus_id" binding:"required,uuid"`
	RouteID       string  `json:"route_id" binding:"required,uuid"`
	TravelDate    string  `json:"travel_date" binding:"required"`    // 2006-01-02
	DepartureTime string  `json:"departure_time" binding:"required"` // RFC3339
	ArrivalTime   string  `json:"arrival_time" binding:"required"`   // RFC3339
	Price         float64 `json:"price" binding:"required,gt=0"`
}

type SearchQuery struct {
	SourceCityID      string `form:"sourceCityId" binding:"required,uuid"`
	DestinationCityID string `form:"destinationId" binding:"required,uuid"`
	TravelDate        string `form:"travelDate" binding:"required"`
	Page              int    `form:"page,default=1" binding:"min=1"`
	Limit             int    `form:"limit,default=10" binding:"min=1,max=100"`
}
