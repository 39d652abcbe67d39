// Package scoring bridges results onto the World Athletics points
// tables.
package scoring

import "errors"

var (
	ErrUnsupportedEvent     = errors.New("event not in scoring table")
	ErrOutOfRange           = errors.New("performance outside scoring table range")
	ErrMalformedPerformance = errors.New("malformed performance")
)

// Scorer turns a canonical performance string into WA points. exact is
// true when the performance hits a table entry instead of rounding
// down to the nearest one.
type Scorer interface {
	Score(gender, waEvent, performance string) (points int, exact bool, err error)
}

// ErrorKind classifies a scoring failure into the stable string
// recorded on the result row.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedEvent):
		return "unsupported_event"
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, ErrMalformedPerformance):
		return "malformed_performance"
	default:
		return "score_error"
	}
}
