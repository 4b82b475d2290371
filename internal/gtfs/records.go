package gtfs

import (
	"fmt"
	"strings"
)

// Table describes where one entity kind lives on disk and in the store.
type Table struct {
	Name    string   // table name
	File    string   // feed file name
	Columns []string // stored columns, in insert order
}

type setter[T any] func(rec *T, raw string)

// schema binds an entity kind to its table and to the decoders of each of
// its known columns.
type schema[T any] struct {
	Table
	required []string
	init     func() T
	fields   map[string]setter[T]
	values   func(rec *T) []any // one value per Table.Columns entry
}

// decode builds a record from one row. Unknown column names are ignored
// and blank cells keep the record's default.
func (s *schema[T]) decode(names, values []string) (T, error) {
	rec := s.fresh()
	if isBlank(values) {
		return rec, ErrEmptyRecord
	}
	for _, col := range s.required {
		i := lastIndex(names, col)
		if i < 0 || i >= len(values) || strings.TrimSpace(values[i]) == "" {
			return rec, fmt.Errorf("%w: %s is required", ErrMalformedRecord, col)
		}
	}
	s.assign(&rec, names, values)
	return rec, nil
}

func (s *schema[T]) assign(rec *T, names, values []string) {
	for i, name := range names {
		if i >= len(values) {
			break
		}
		set, ok := s.fields[name]
		if !ok || strings.TrimSpace(values[i]) == "" {
			continue
		}
		set(rec, values[i])
	}
}

// lastIndex matches assign, where a repeated column name takes its last value.
func lastIndex(names []string, col string) int {
	for i := len(names) - 1; i >= 0; i-- {
		if names[i] == col {
			return i
		}
	}
	return -1
}

func (s *schema[T]) fresh() T {
	if s.init != nil {
		return s.init()
	}
	var zero T
	return zero
}

func isBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// entity is the type-erased view of a schema, letting the writers drive
// every kind through one loop.
type entity interface {
	table() Table
	decodeRow(names, values []string) ([]any, error)
}

func (s *schema[T]) table() Table { return s.Table }

// decodeRow decodes a row and returns its stored column values.
func (s *schema[T]) decodeRow(names, values []string) ([]any, error) {
	rec, err := s.decode(names, values)
	if err != nil {
		return nil, err
	}
	return s.values(&rec), nil
}

// entities lists every kind in feed processing order.
var entities = []entity{
	agencySchema,
	stopSchema,
	routeSchema,
	tripSchema,
	stopTimeSchema,
	calendarSchema,
	calendarDateSchema,
	fareAttributeSchema,
	fareRuleSchema,
	frequencySchema,
	shapeSchema,
	transferSchema,
	feedInfoSchema,
}

// Tables lists every entity table in feed processing order.
func Tables() []Table {
	out := make([]Table, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.table())
	}
	return out
}

func DecodeAgency(names, values []string) (Agency, error) {
	return agencySchema.decode(names, values)
}

func DecodeStop(names, values []string) (Stop, error) {
	return stopSchema.decode(names, values)
}

func DecodeRoute(names, values []string) (Route, error) {
	return routeSchema.decode(names, values)
}

func DecodeTrip(names, values []string) (Trip, error) {
	return tripSchema.decode(names, values)
}

func DecodeStopTime(names, values []string) (StopTime, error) {
	return stopTimeSchema.decode(names, values)
}

func DecodeCalendarEntry(names, values []string) (CalendarEntry, error) {
	return calendarSchema.decode(names, values)
}

func DecodeCalendarDate(names, values []string) (CalendarDate, error) {
	return calendarDateSchema.decode(names, values)
}

func DecodeFareAttribute(names, values []string) (FareAttribute, error) {
	return fareAttributeSchema.decode(names, values)
}

func DecodeFareRule(names, values []string) (FareRule, error) {
	return fareRuleSchema.decode(names, values)
}

func DecodeFrequency(names, values []string) (Frequency, error) {
	return frequencySchema.decode(names, values)
}

func DecodeShapePoint(names, values []string) (ShapePoint, error) {
	return shapeSchema.decode(names, values)
}

func DecodeTransfer(names, values []string) (Transfer, error) {
	return transferSchema.decode(names, values)
}

func DecodeFeedInfo(names, values []string) (FeedInfo, error) {
	return feedInfoSchema.decode(names, values)
}

var agencySchema = &schema[Agency]{
	Table: Table{
		Name: "agency",
		File: "agency.txt",
		Columns: []string{
			"agency_id", "agency_name", "agency_url", "agency_timezone",
			"agency_lang", "agency_phone", "agency_fare_url", "agency_email",
		},
	},
	required: []string{"agency_name", "agency_url", "agency_timezone"},
	fields: map[string]setter[Agency]{
		"agency_id":       func(r *Agency, v string) { r.ID = ParseID(v) },
		"agency_name":     func(r *Agency, v string) { r.Name = ParseText(v, nameLen) },
		"agency_url":      func(r *Agency, v string) { r.URL = ParseText(v, urlLen) },
		"agency_timezone": func(r *Agency, v string) { r.Timezone = ParseText(v, tzLen) },
		"agency_lang":     func(r *Agency, v string) { r.Lang = ParseText(v, langLen) },
		"agency_phone":    func(r *Agency, v string) { r.Phone = ParseText(v, phoneLen) },
		"agency_fare_url": func(r *Agency, v string) { r.FareURL = ParseText(v, urlLen) },
		"agency_email":    func(r *Agency, v string) { r.Email = ParseText(v, emailLen) },
	},
	values: func(r *Agency) []any {
		return []any{r.ID, r.Name, r.URL, r.Timezone, r.Lang, r.Phone, r.FareURL, r.Email}
	},
}

var stopSchema = &schema[Stop]{
	Table: Table{
		Name: "stops",
		File: "stops.txt",
		Columns: []string{
			"stop_id", "stop_code", "stop_name", "stop_desc", "stop_lat", "stop_lon",
			"zone_id", "stop_url", "location_type", "parent_station", "stop_timezone",
			"wheelchair_boarding", "level_id", "platform_code",
		},
	},
	required: []string{"stop_id"},
	fields: map[string]setter[Stop]{
		"stop_id":             func(r *Stop, v string) { r.ID = ParseID(v) },
		"stop_code":           func(r *Stop, v string) { r.Code = ParseText(v, nameLen) },
		"stop_name":           func(r *Stop, v string) { r.Name = ParseText(v, nameLen) },
		"stop_desc":           func(r *Stop, v string) { r.Desc = ParseText(v, descLen) },
		"stop_lat":            func(r *Stop, v string) { r.Lat = ParseCoordinate(v) },
		"stop_lon":            func(r *Stop, v string) { r.Lon = ParseCoordinate(v) },
		"zone_id":             func(r *Stop, v string) { r.ZoneID = ParseID(v) },
		"stop_url":            func(r *Stop, v string) { r.URL = ParseText(v, urlLen) },
		"location_type":       func(r *Stop, v string) { r.LocationType = ParseLocationType(v) },
		"parent_station":      func(r *Stop, v string) { r.ParentStation = ParseID(v) },
		"stop_timezone":       func(r *Stop, v string) { r.Timezone = ParseText(v, tzLen) },
		"wheelchair_boarding": func(r *Stop, v string) { r.WheelchairBoarding = ParseWheelchairBoarding(v) },
		"level_id":            func(r *Stop, v string) { r.LevelID = ParseID(v) },
		"platform_code":       func(r *Stop, v string) { r.PlatformCode = ParseText(v, nameLen) },
	},
	values: func(r *Stop) []any {
		return []any{
			r.ID, r.Code, r.Name, r.Desc, r.Lat, r.Lon,
			r.ZoneID, r.URL, r.LocationType, r.ParentStation, r.Timezone,
			r.WheelchairBoarding, r.LevelID, r.PlatformCode,
		}
	},
}

var routeSchema = &schema[Route]{
	Table: Table{
		Name: "routes",
		File: "routes.txt",
		Columns: []string{
			"route_id", "agency_id", "route_short_name", "route_long_name", "route_desc",
			"route_type", "route_url", "route_color", "route_text_color", "route_sort_order",
			"continuous_pickup", "continuous_drop_off",
		},
	},
	required: []string{"route_id"},
	init:     NewRoute,
	fields: map[string]setter[Route]{
		"route_id":            func(r *Route, v string) { r.ID = ParseID(v) },
		"agency_id":           func(r *Route, v string) { r.AgencyID = ParseID(v) },
		"route_short_name":    func(r *Route, v string) { r.ShortName = ParseText(v, nameLen) },
		"route_long_name":     func(r *Route, v string) { r.LongName = ParseText(v, nameLen) },
		"route_desc":          func(r *Route, v string) { r.Desc = ParseText(v, descLen) },
		"route_type":          func(r *Route, v string) { r.Type = ParseRouteType(v) },
		"route_url":           func(r *Route, v string) { r.URL = ParseText(v, urlLen) },
		"route_color":         func(r *Route, v string) { r.Color = ParseText(v, colorLen) },
		"route_text_color":    func(r *Route, v string) { r.TextColor = ParseText(v, colorLen) },
		"route_sort_order":    func(r *Route, v string) { r.SortOrder = ParseInt(v) },
		"continuous_pickup":   func(r *Route, v string) { r.ContinuousPickup = ParseContinuousStopType(v) },
		"continuous_drop_off": func(r *Route, v string) { r.ContinuousDropOff = ParseContinuousStopType(v) },
	},
	values: func(r *Route) []any {
		return []any{
			r.ID, r.AgencyID, r.ShortName, r.LongName, r.Desc,
			r.Type, r.URL, r.Color, r.TextColor, r.SortOrder,
			r.ContinuousPickup, r.ContinuousDropOff,
		}
	},
}

var tripSchema = &schema[Trip]{
	Table: Table{
		Name: "trips",
		File: "trips.txt",
		Columns: []string{
			"route_id", "service_id", "trip_id", "trip_headsign", "trip_short_name",
			"direction_id", "block_id", "shape_id", "wheelchair_accessible", "bikes_allowed",
		},
	},
	required: []string{"route_id", "service_id", "trip_id"},
	fields: map[string]setter[Trip]{
		"route_id":              func(r *Trip, v string) { r.RouteID = ParseID(v) },
		"service_id":            func(r *Trip, v string) { r.ServiceID = ParseID(v) },
		"trip_id":               func(r *Trip, v string) { r.ID = ParseID(v) },
		"trip_headsign":         func(r *Trip, v string) { r.Headsign = ParseText(v, nameLen) },
		"trip_short_name":       func(r *Trip, v string) { r.ShortName = ParseText(v, nameLen) },
		"direction_id":          func(r *Trip, v string) { r.DirectionID = ParseDirection(v) },
		"block_id":              func(r *Trip, v string) { r.BlockID = ParseID(v) },
		"shape_id":              func(r *Trip, v string) { r.ShapeID = ParseID(v) },
		"wheelchair_accessible": func(r *Trip, v string) { r.WheelchairAccessible = ParseWheelchairAccessibility(v) },
		"bikes_allowed":         func(r *Trip, v string) { r.BikesAllowed = ParseBikeAllowance(v) },
	},
	values: func(r *Trip) []any {
		return []any{
			r.RouteID, r.ServiceID, r.ID, r.Headsign, r.ShortName,
			r.DirectionID, r.BlockID, r.ShapeID, r.WheelchairAccessible, r.BikesAllowed,
		}
	},
}

var stopTimeSchema = &schema[StopTime]{
	Table: Table{
		Name: "stop_times",
		File: "stop_times.txt",
		Columns: []string{
			"trip_id", "arrival_time", "departure_time", "stop_id", "stop_sequence",
			"stop_headsign", "pickup_type", "drop_off_type", "continuous_pickup",
			"continuous_drop_off", "shape_dist_traveled", "timepoint",
		},
	},
	required: []string{"trip_id", "stop_sequence"},
	init:     NewStopTime,
	fields: map[string]setter[StopTime]{
		"trip_id":             func(r *StopTime, v string) { r.TripID = ParseID(v) },
		"arrival_time":        func(r *StopTime, v string) { r.ArrivalTime = ParseTime(v) },
		"departure_time":      func(r *StopTime, v string) { r.DepartureTime = ParseTime(v) },
		"stop_id":             func(r *StopTime, v string) { r.StopID = ParseID(v) },
		"stop_sequence":       func(r *StopTime, v string) { r.StopSequence = ParseInt(v) },
		"stop_headsign":       func(r *StopTime, v string) { r.StopHeadsign = ParseText(v, nameLen) },
		"pickup_type":         func(r *StopTime, v string) { r.PickupType = ParseStopType(v) },
		"drop_off_type":       func(r *StopTime, v string) { r.DropOffType = ParseStopType(v) },
		"continuous_pickup":   func(r *StopTime, v string) { r.ContinuousPickup = ParseContinuousStopType(v) },
		"continuous_drop_off": func(r *StopTime, v string) { r.ContinuousDropOff = ParseContinuousStopType(v) },
		"shape_dist_traveled": func(r *StopTime, v string) { r.ShapeDistTraveled = ParseFloat(v) },
		"timepoint":           func(r *StopTime, v string) { r.Timepoint = ParseTimepointPrecision(v) },
	},
	values: func(r *StopTime) []any {
		return []any{
			r.TripID, r.ArrivalTime, r.DepartureTime, r.StopID, r.StopSequence,
			r.StopHeadsign, r.PickupType, r.DropOffType, r.ContinuousPickup,
			r.ContinuousDropOff, r.ShapeDistTraveled, r.Timepoint,
		}
	},
}

var calendarSchema = &schema[CalendarEntry]{
	Table: Table{
		Name: "calendar",
		File: "calendar.txt",
		Columns: []string{
			"service_id", "monday", "tuesday", "wednesday", "thursday",
			"friday", "saturday", "sunday", "start_date", "end_date",
		},
	},
	required: []string{"service_id", "start_date", "end_date"},
	fields: map[string]setter[CalendarEntry]{
		"service_id": func(r *CalendarEntry, v string) { r.ServiceID = ParseID(v) },
		"monday":     func(r *CalendarEntry, v string) { r.Monday = ParseServiceAvailability(v) },
		"tuesday":    func(r *CalendarEntry, v string) { r.Tuesday = ParseServiceAvailability(v) },
		"wednesday":  func(r *CalendarEntry, v string) { r.Wednesday = ParseServiceAvailability(v) },
		"thursday":   func(r *CalendarEntry, v string) { r.Thursday = ParseServiceAvailability(v) },
		"friday":     func(r *CalendarEntry, v string) { r.Friday = ParseServiceAvailability(v) },
		"saturday":   func(r *CalendarEntry, v string) { r.Saturday = ParseServiceAvailability(v) },
		"sunday":     func(r *CalendarEntry, v string) { r.Sunday = ParseServiceAvailability(v) },
		"start_date": func(r *CalendarEntry, v string) { r.StartDate = ParseDate(v) },
		"end_date":   func(r *CalendarEntry, v string) { r.EndDate = ParseDate(v) },
	},
	values: func(r *CalendarEntry) []any {
		return []any{
			r.ServiceID, r.Monday, r.Tuesday, r.Wednesday, r.Thursday,
			r.Friday, r.Saturday, r.Sunday, r.StartDate, r.EndDate,
		}
	},
}

var calendarDateSchema = &schema[CalendarDate]{
	Table: Table{
		Name:    "calendar_dates",
		File:    "calendar_dates.txt",
		Columns: []string{"service_id", "date", "exception_type"},
	},
	required: []string{"service_id", "date"},
	fields: map[string]setter[CalendarDate]{
		"service_id":     func(r *CalendarDate, v string) { r.ServiceID = ParseID(v) },
		"date":           func(r *CalendarDate, v string) { r.Date = ParseDate(v) },
		"exception_type": func(r *CalendarDate, v string) { r.ExceptionType = ParseExceptionType(v) },
	},
	values: func(r *CalendarDate) []any {
		return []any{r.ServiceID, r.Date, r.ExceptionType}
	},
}

var fareAttributeSchema = &schema[FareAttribute]{
	Table: Table{
		Name: "fare_attributes",
		File: "fare_attributes.txt",
		Columns: []string{
			"fare_id", "price", "currency_type", "payment_method",
			"transfers", "agency_id", "transfer_duration",
		},
	},
	required: []string{"fare_id", "price", "currency_type"},
	init:     NewFareAttribute,
	fields: map[string]setter[FareAttribute]{
		"fare_id":           func(r *FareAttribute, v string) { r.ID = ParseID(v) },
		"price":             func(r *FareAttribute, v string) { r.Price = ParseFloat(v) },
		"currency_type":     func(r *FareAttribute, v string) { r.CurrencyType = ParseText(v, currencyLen) },
		"payment_method":    func(r *FareAttribute, v string) { r.PaymentMethod = ParsePaymentMethod(v) },
		"transfers":         func(r *FareAttribute, v string) { r.Transfers = ParseTransferState(v) },
		"agency_id":         func(r *FareAttribute, v string) { r.AgencyID = ParseID(v) },
		"transfer_duration": func(r *FareAttribute, v string) { r.TransferDuration = ParseInt(v) },
	},
	values: func(r *FareAttribute) []any {
		return []any{
			r.ID, r.Price, r.CurrencyType, r.PaymentMethod,
			r.Transfers, r.AgencyID, r.TransferDuration,
		}
	},
}

var fareRuleSchema = &schema[FareRule]{
	Table: Table{
		Name:    "fare_rules",
		File:    "fare_rules.txt",
		Columns: []string{"fare_id", "route_id", "origin_id", "destination_id", "contains_id"},
	},
	required: []string{"fare_id"},
	fields: map[string]setter[FareRule]{
		"fare_id":        func(r *FareRule, v string) { r.FareID = ParseID(v) },
		"route_id":       func(r *FareRule, v string) { r.RouteID = ParseID(v) },
		"origin_id":      func(r *FareRule, v string) { r.OriginID = ParseID(v) },
		"destination_id": func(r *FareRule, v string) { r.DestinationID = ParseID(v) },
		"contains_id":    func(r *FareRule, v string) { r.ContainsID = ParseID(v) },
	},
	values: func(r *FareRule) []any {
		return []any{r.FareID, r.RouteID, r.OriginID, r.DestinationID, r.ContainsID}
	},
}

var frequencySchema = &schema[Frequency]{
	Table: Table{
		Name:    "frequencies",
		File:    "frequencies.txt",
		Columns: []string{"trip_id", "start_time", "end_time", "headway_secs", "exact_times"},
	},
	required: []string{"trip_id", "start_time", "end_time", "headway_secs"},
	fields: map[string]setter[Frequency]{
		"trip_id":      func(r *Frequency, v string) { r.TripID = ParseID(v) },
		"start_time":   func(r *Frequency, v string) { r.StartTime = ParseTime(v) },
		"end_time":     func(r *Frequency, v string) { r.EndTime = ParseTime(v) },
		"headway_secs": func(r *Frequency, v string) { r.HeadwaySecs = ParseInt(v) },
		"exact_times":  func(r *Frequency, v string) { r.ExactTimes = ParseTimeExactness(v) },
	},
	values: func(r *Frequency) []any {
		return []any{r.TripID, r.StartTime, r.EndTime, r.HeadwaySecs, r.ExactTimes}
	},
}

var shapeSchema = &schema[ShapePoint]{
	Table: Table{
		Name: "shapes",
		File: "shapes.txt",
		Columns: []string{
			"shape_id", "shape_pt_lat", "shape_pt_lon", "shape_pt_sequence", "shape_dist_traveled",
		},
	},
	required: []string{"shape_id", "shape_pt_lat", "shape_pt_lon", "shape_pt_sequence"},
	fields: map[string]setter[ShapePoint]{
		"shape_id":            func(r *ShapePoint, v string) { r.ShapeID = ParseID(v) },
		"shape_pt_lat":        func(r *ShapePoint, v string) { r.Lat = ParseCoordinate(v) },
		"shape_pt_lon":        func(r *ShapePoint, v string) { r.Lon = ParseCoordinate(v) },
		"shape_pt_sequence":   func(r *ShapePoint, v string) { r.Sequence = ParseInt(v) },
		"shape_dist_traveled": func(r *ShapePoint, v string) { r.ShapeDistTraveled = ParseFloat(v) },
	},
	values: func(r *ShapePoint) []any {
		return []any{r.ShapeID, r.Lat, r.Lon, r.Sequence, r.ShapeDistTraveled}
	},
}

var transferSchema = &schema[Transfer]{
	Table: Table{
		Name:    "transfers",
		File:    "transfers.txt",
		Columns: []string{"from_stop_id", "to_stop_id", "transfer_type", "min_transfer_time"},
	},
	required: []string{"from_stop_id", "to_stop_id"},
	fields: map[string]setter[Transfer]{
		"from_stop_id":      func(r *Transfer, v string) { r.FromStopID = ParseID(v) },
		"to_stop_id":        func(r *Transfer, v string) { r.ToStopID = ParseID(v) },
		"transfer_type":     func(r *Transfer, v string) { r.TransferType = ParseTransferType(v) },
		"min_transfer_time": func(r *Transfer, v string) { r.MinTransferTime = ParseInt(v) },
	},
	values: func(r *Transfer) []any {
		return []any{r.FromStopID, r.ToStopID, r.TransferType, r.MinTransferTime}
	},
}

var feedInfoSchema = &schema[FeedInfo]{
	Table: Table{
		Name: "feed_info",
		File: "feed_info.txt",
		Columns: []string{
			"feed_publisher_name", "feed_publisher_url", "feed_lang", "default_lang",
			"feed_start_date", "feed_end_date", "feed_version", "feed_contact_email",
			"feed_contact_url",
		},
	},
	required: []string{"feed_publisher_name", "feed_publisher_url", "feed_lang"},
	fields: map[string]setter[FeedInfo]{
		"feed_publisher_name": func(r *FeedInfo, v string) { r.PublisherName = ParseText(v, nameLen) },
		"feed_publisher_url":  func(r *FeedInfo, v string) { r.PublisherURL = ParseText(v, urlLen) },
		"feed_lang":           func(r *FeedInfo, v string) { r.Lang = ParseText(v, langLen) },
		"default_lang":        func(r *FeedInfo, v string) { r.DefaultLang = ParseText(v, langLen) },
		"feed_start_date":     func(r *FeedInfo, v string) { r.StartDate = ParseDate(v) },
		"feed_end_date":       func(r *FeedInfo, v string) { r.EndDate = ParseDate(v) },
		"feed_version":        func(r *FeedInfo, v string) { r.Version = ParseText(v, nameLen) },
		"feed_contact_email":  func(r *FeedInfo, v string) { r.ContactEmail = ParseText(v, emailLen) },
		"feed_contact_url":    func(r *FeedInfo, v string) { r.ContactURL = ParseText(v, urlLen) },
	},
	values: func(r *FeedInfo) []any {
		return []any{
			r.PublisherName, r.PublisherURL, r.Lang, r.DefaultLang,
			r.StartDate, r.EndDate, r.Version, r.ContactEmail, r.ContactURL,
		}
	},
}
