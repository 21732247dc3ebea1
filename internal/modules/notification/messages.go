package notification

import (
	"fmt"

	"studiobooking/internal/domain"
)

// render builds the title and body shown in the inbox for a booking event.
func render(event string, payload map[string]any) (title, body string) {
	id := payload["booking_id"]
	switch event {
	case domain.EventBookingCreated:
		return "New booking", fmt.Sprintf("Booking #%v was requested and awaits confirmation.", id)
	case domain.EventBookingConfirmed:
		return "Booking confirmed", fmt.Sprintf("Booking #%v has been confirmed.", id)
	case domain.EventBookingCancelled:
		return "Booking cancelled", fmt.Sprintf("Booking #%v has been cancelled.", id)
	case domain.EventBookingCompleted:
		return "Booking completed", fmt.Sprintf("Booking #%v is complete.", id)
	case domain.EventBookingUpdated:
		return "Booking updated", fmt.Sprintf("Booking #%v was changed.", id)
	}
	return "Notification", ""
}
