package booking

import "studiobooking/internal/domain"

var transitions = map[domain.BookingStatus][]domain.BookingStatus{
	domain.BookingPending:   {domain.BookingConfirmed, domain.BookingCancelled},
	domain.BookingConfirmed: {domain.BookingCancelled, domain.BookingCompleted},
	domain.BookingCancelled: {},
	domain.BookingCompleted: {},
}

// CanTransition reports whether from -> to is an edge of the booking lifecycle.
func CanTransition(from, to domain.BookingStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func IsTerminal(s domain.BookingStatus) bool {
	return len(transitions[s]) == 0
}
