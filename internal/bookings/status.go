package bookings

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
)

// IsValid checks if the booking status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusConfirmed:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentSuccess, PaymentFailed:
		return true
	}
	return false
}
