package rentals

import "time"

// intervalsOverlap reports whether two half-open [start, end) intervals
// intersect. Bookings that share an endpoint do not overlap. This is the
// single enforcement point for the booking invariant; every create, update,
// and SQL guard expresses the same comparison.
func intervalsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
