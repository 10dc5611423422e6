package domain

// ReservationStatus is the lifecycle state of a reservation.
// The listings core only reads reservations: it counts Active ones per
// listing and refuses to delete a listing while any Active one exists.
type ReservationStatus int16

const (
	ReservationActive    ReservationStatus = 1
	ReservationCancelled ReservationStatus = 2
)
