package bookings

type PassengerInput struct {
	Name      string `json:"name" binding:"required"`
	Age       int    `json:"age" binding:"required,gt=0"`
	Gender    string `json:"gender" binding:"required"`
	SeatLabel string `json:"seatLabel" binding:"required"`
}

type ConfirmRequest struct {
	ScheduleID string           `json:"scheduleId" binding:"required,uuid"`
	Passengers []PassengerInput `json:"passengers" binding:"required,min=1,dive"`
}

type ListQuery struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit,default=10" binding:"min=1,max=100"`
}

func (q ListQuery) normalize() (page, limit int) {
	page, limit = q.Page, q.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return page, limit
}
