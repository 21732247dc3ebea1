package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"studiobooking/internal/domain"
)

var nanosPerHour = decimal.NewFromInt(int64(time.Hour))

// ComputePrice returns room.HourlyRate multiplied by the window length in
// hours, rounded to cents. Equipment and staff rates are not included.
func ComputePrice(room *domain.Room, w domain.Window) (decimal.Decimal, error) {
	if !w.Valid() {
		return decimal.Zero, ErrInvalidWindow
	}
	nanos := decimal.NewFromInt(int64(w.Duration()))
	return room.HourlyRate.Mul(nanos).Div(nanosPerHour).Round(2), nil
}
