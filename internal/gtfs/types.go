package gtfs

import "gtfsdb/internal/geo"

// Feed holds every collection decoded from one feed source, in file order.
type Feed struct {
	Agencies       []Agency
	Stops          []Stop
	Routes         []Route
	Trips          []Trip
	StopTimes      []StopTime
	Calendar       []CalendarEntry
	CalendarDates  []CalendarDate
	FareAttributes []FareAttribute
	FareRules      []FareRule
	Frequencies    []Frequency
	Shapes         []ShapePoint
	Transfers      []Transfer
	FeedInfo       []FeedInfo

	// Rejected lists rows dropped under the SkipRow policy.
	Rejected []*RowError
}

// TableCount is the number of records of one entity kind.
type TableCount struct {
	Table string
	Rows  int
}

// Counts returns the size of every collection in file order.
func (f *Feed) Counts() []TableCount {
	return []TableCount{
		{"agency", len(f.Agencies)},
		{"stops", len(f.Stops)},
		{"routes", len(f.Routes)},
		{"trips", len(f.Trips)},
		{"stop_times", len(f.StopTimes)},
		{"calendar", len(f.Calendar)},
		{"calendar_dates", len(f.CalendarDates)},
		{"fare_attributes", len(f.FareAttributes)},
		{"fare_rules", len(f.FareRules)},
		{"frequencies", len(f.Frequencies)},
		{"shapes", len(f.Shapes)},
		{"transfers", len(f.Transfers)},
		{"feed_info", len(f.FeedInfo)},
	}
}

type Agency struct {
	ID       string
	Name     string
	URL      string
	Timezone string
	Lang     string
	Phone    string
	FareURL  string
	Email    string
}

type Stop struct {
	ID                 string
	Code               string
	Name               string
	Desc               string
	Lat                float64
	Lon                float64
	ZoneID             string
	URL                string
	LocationType       LocationType
	ParentStation      string
	Timezone           string
	WheelchairBoarding WheelchairBoarding
	LevelID            string
	PlatformCode       string
}

// DistanceTo returns the great-circle distance to o in meters.
func (s Stop) DistanceTo(o Stop) float64 {
	return geo.Distance(s.Point(), o.Point())
}

// Point returns the stop's position.
func (s Stop) Point() geo.Point {
	return geo.Point{Lat: s.Lat, Lon: s.Lon}
}

type Route struct {
	ID                string
	AgencyID          string
	ShortName         string
	LongName          string
	Desc              string
	Type              Opt[RouteType]
	URL               string
	Color             string
	TextColor         string
	SortOrder         int
	ContinuousPickup  StopType
	ContinuousDropOff StopType
}

// NewRoute returns a route with the format's defaults: white background,
// black text and no continuous stopping.
func NewRoute() Route {
	return Route{
		Color:             "FFFFFF",
		TextColor:         "000000",
		ContinuousPickup:  StopNone,
		ContinuousDropOff: StopNone,
	}
}

type Trip struct {
	RouteID              string
	ServiceID            string
	ID                   string
	Headsign             string
	ShortName            string
	DirectionID          Opt[Direction]
	BlockID              string
	ShapeID              string
	WheelchairAccessible WheelchairAccessibility
	BikesAllowed         BikeAllowance
}

type StopTime struct {
	TripID            string
	ArrivalTime       string
	DepartureTime     string
	StopID            string
	StopSequence      int
	StopHeadsign      string
	PickupType        StopType
	DropOffType       StopType
	ContinuousPickup  StopType
	ContinuousDropOff StopType
	ShapeDistTraveled float64
	Timepoint         TimepointPrecision
}

// NewStopTime returns a stop time with exact timing and no continuous stopping.
func NewStopTime() StopTime {
	return StopTime{
		ContinuousPickup:  StopNone,
		ContinuousDropOff: StopNone,
		Timepoint:         TimepointExact,
	}
}

type CalendarEntry struct {
	ServiceID string
	Monday    ServiceAvailability
	Tuesday   ServiceAvailability
	Wednesday ServiceAvailability
	Thursday  ServiceAvailability
	Friday    ServiceAvailability
	Saturday  ServiceAvailability
	Sunday    ServiceAvailability
	StartDate Date
	EndDate   Date
}

type CalendarDate struct {
	ServiceID     string
	Date          Date
	ExceptionType Opt[ExceptionType]
}

type FareAttribute struct {
	ID               string
	Price            float64
	CurrencyType     string
	PaymentMethod    Opt[PaymentMethod]
	Transfers        TransferState
	AgencyID         string
	TransferDuration int
}

// NewFareAttribute returns a fare allowing unlimited transfers.
func NewFareAttribute() FareAttribute {
	return FareAttribute{Transfers: TransfersUnlimited}
}

type FareRule struct {
	FareID        string
	RouteID       string
	OriginID      string
	DestinationID string
	ContainsID    string
}

type Frequency struct {
	TripID      string
	StartTime   string
	EndTime     string
	HeadwaySecs int
	ExactTimes  TimeExactness
}

type ShapePoint struct {
	ShapeID           string
	Lat               float64
	Lon               float64
	Sequence          int
	ShapeDistTraveled float64
}

type Transfer struct {
	FromStopID      string
	ToStopID        string
	TransferType    TransferType
	MinTransferTime int
}

type FeedInfo struct {
	PublisherName string
	PublisherURL  string
	Lang          string
	DefaultLang   string
	StartDate     Date
	EndDate       Date
	Version       string
	ContactEmail  string
	ContactURL    string
}
