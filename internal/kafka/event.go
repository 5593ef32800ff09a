package kafkax

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samirwankhede/restaurant-insights/internal/store/bookings"
)

const (
	BookingUpserted = "booking.upserted"
	BookingDeleted  = "booking.deleted"
)

var ErrMalformedEvent = errors.New("malformed booking event")

// BookingEvent is the payload of the bookings topic.
type BookingEvent struct {
	Type    string           `json:"type"`
	Booking bookings.Booking `json:"booking"`
}

// ParseBookingEvent decodes and checks a message value. Upserts need a
// restaurant and a booking date; deletes only need the booking id.
func ParseBookingEvent(b []byte) (BookingEvent, error) {
	var e BookingEvent
	if err := json.Unmarshal(b, &e); err != nil {
		return e, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	switch e.Type {
	case BookingUpserted:
		if e.Booking.RestaurantID == "" || e.Booking.BookingDate.IsZero() {
			return e, fmt.Errorf("%w: upsert needs restaurantId and bookingDate", ErrMalformedEvent)
		}
	case BookingDeleted:
		if e.Booking.ID == "" {
			return e, fmt.Errorf("%w: delete needs booking id", ErrMalformedEvent)
		}
	default:
		return e, fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, e.Type)
	}
	return e, nil
}

// Key partitions events by booking so updates to one booking stay ordered.
func (e BookingEvent) Key() []byte { return []byte(e.Booking.ID) }

func (e BookingEvent) Marshal() ([]byte, error) { return json.Marshal(e) }
