package seats

type HoldRequest struct {
	ScheduleID string   `json:"scheduleId" binding:"required,uuid"`
	SeatLabels []string `json:"seatLabels" binding:"required,min=1,dive,required"`
}
