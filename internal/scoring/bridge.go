package scoring

import (
	"nfwa/internal"
)

// Outcome is what a scoring attempt leaves on the result row.
type Outcome struct {
	Points *int
	Exact  bool
	Error  *string
}

// Bridge applies a Scorer to normalized results. A row without a WA
// code or without a value simply has no points; only an actual lookup
// failure is recorded as an error, and it never blocks the row.
type Bridge struct {
	scorer Scorer
}

func NewBridge(scorer Scorer) *Bridge {
	return &Bridge{scorer: scorer}
}

func (b *Bridge) Apply(gender internal.Gender, waEvent *string, value *float64, performance string) Outcome {
	if b == nil || b.scorer == nil || waEvent == nil || value == nil {
		return Outcome{}
	}
	points, exact, err := b.scorer.Score(string(gender), *waEvent, performance)
	if err != nil {
		kind := ErrorKind(err)
		return Outcome{Error: &kind}
	}
	return Outcome{Points: &points, Exact: exact}
}
