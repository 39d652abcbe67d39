package internal

type Gender string

const (
	GenderWomen Gender = "Women"
	GenderMen   Gender = "Men"
)

// Orientation says which direction is better for an event:
// lower for times, higher for distances, heights and points.
type Orientation string

const (
	OrientLower  Orientation = "lower"
	OrientHigher Orientation = "higher"
)

type SourceID string

const (
	SourceMinfriidrett SourceID = "minfriidrett"
	SourceKondis       SourceID = "kondis"
	SourceFriidrett    SourceID = "friidrett"
	SourceOldData      SourceID = "olddata"
)

type CanonicalEvent struct {
	NameNo      string
	WAEvent     *string
	Orientation Orientation
	SortKey     int
}

// RawResult is one row as a scraper saw it, before any normalization.
type RawResult struct {
	Source          SourceID
	SourceURL       string
	Season          int
	Gender          Gender
	EventLabel      string
	RankInList      int
	PerformanceRaw  string
	AthleteName     string
	AthleteNativeID *int64
	BirthDate       *string
	Club            *string
	Nationality     *string
	PlacementRaw    *string
	VenueCity       *string
	Stadium         *string
	CompetitionID   *int64
	CompetitionName *string
	ResultDate      *string
	Wind            *float64
}

type PerfState string

const (
	PerfOK          PerfState = "ok"
	PerfVoid        PerfState = "void"
	PerfUnparseable PerfState = "unparseable"
	PerfAmbiguous   PerfState = "ambiguous"
)

type NormalizedResult struct {
	RawResult
	Event       CanonicalEvent
	AthleteID   int64
	Performance string
	Value       *float64
	State       PerfState
	WAPoints    *int
	WAExact     bool
	WAError     *string
}

type SyncSummary struct {
	Pages         int
	RowsSeen      int
	RowsInserted  int
	RowsSkipped   int
	WASuccess     int
	WAFailed      int
	WAMissing     int
	UnknownEvents map[string]int
}

func (s *SyncSummary) AddUnknown(label string) {
	if s.UnknownEvents == nil {
		s.UnknownEvents = map[string]int{}
	}
	s.UnknownEvents[label]++
}

func (s *SyncSummary) Merge(o SyncSummary) {
	s.Pages += o.Pages
	s.RowsSeen += o.RowsSeen
	s.RowsInserted += o.RowsInserted
	s.RowsSkipped += o.RowsSkipped
	s.WASuccess += o.WASuccess
	s.WAFailed += o.WAFailed
	s.WAMissing += o.WAMissing
	for k, v := range o.UnknownEvents {
		if s.UnknownEvents == nil {
			s.UnknownEvents = map[string]int{}
		}
		s.UnknownEvents[k] += v
	}
}
