package gtfs

import (
	"database/sql/driver"
	"slices"
	"strconv"
	"strings"
)

// Opt is an enumerated value that may be unset. It is used for fields
// whose format gives no safe default, so "not set" stays distinct from
// every real member. Unset values are stored as NULL.
type Opt[T ~int] struct {
	Val   T
	Valid bool
}

// Some returns a set Opt holding v.
func Some[T ~int](v T) Opt[T] {
	return Opt[T]{Val: v, Valid: true}
}

// Get returns the value and whether it is set.
func (o Opt[T]) Get() (T, bool) {
	return o.Val, o.Valid
}

// Value implements driver.Valuer.
func (o Opt[T]) Value() (driver.Value, error) {
	if !o.Valid {
		return nil, nil
	}
	return int64(o.Val), nil
}

// ServiceAvailability tells whether a service runs on a weekday.
type ServiceAvailability int

const (
	ServiceUnavailable ServiceAvailability = 0
	ServiceAvailable   ServiceAvailability = 1
)

// ExceptionType is the kind of a calendar_dates exception.
type ExceptionType int

const (
	ExceptionAdded   ExceptionType = 1
	ExceptionRemoved ExceptionType = 2
)

// PaymentMethod tells when a fare is paid.
type PaymentMethod int

const (
	PaymentOnBoard        PaymentMethod = 0
	PaymentBeforeBoarding PaymentMethod = 1
)

// TransferState is the number of transfers a fare permits.
type TransferState int

const (
	TransfersNone      TransferState = 0
	TransfersOnce      TransferState = 1
	TransfersTwice     TransferState = 2
	TransfersUnlimited TransferState = 3
)

// Value implements driver.Valuer. Unlimited transfers are written as an
// empty (NULL) column, matching the feed format.
func (t TransferState) Value() (driver.Value, error) {
	if t == TransfersUnlimited {
		return nil, nil
	}
	return int64(t), nil
}

// TimeExactness is the exact_times mode of a frequency.
type TimeExactness int

const (
	FrequencyBased TimeExactness = 0
	ScheduleBased  TimeExactness = 1
)

// RouteType is the vehicle type of a route, basic or extended.
type RouteType int

const (
	RouteTram       RouteType = 0
	RouteSubway     RouteType = 1
	RouteRail       RouteType = 2
	RouteBus        RouteType = 3
	RouteFerry      RouteType = 4
	RouteCableTram  RouteType = 5
	RouteAerialLift RouteType = 6
	RouteFunicular  RouteType = 7
	RouteTrolleybus RouteType = 11
	RouteMonorail   RouteType = 12
)

// StopType is a pickup or drop-off arrangement.
type StopType int

const (
	StopRegular              StopType = 0
	StopNone                 StopType = 1
	StopPhoneAgency          StopType = 2
	StopCoordinateWithDriver StopType = 3
)

// TimepointPrecision tells whether stop times are exact or approximate.
type TimepointPrecision int

const (
	TimepointApproximate TimepointPrecision = 0
	TimepointExact       TimepointPrecision = 1
)

// LocationType is the kind of location a stops.txt row describes.
type LocationType int

const (
	LocationStop         LocationType = 0
	LocationStation      LocationType = 1
	LocationEntranceExit LocationType = 2
	LocationGenericNode  LocationType = 3
	LocationBoardingArea LocationType = 4
)

// WheelchairBoarding tells whether wheelchair boarding is possible at a stop.
type WheelchairBoarding int

const (
	BoardingUnknownOrInherited WheelchairBoarding = 0
	BoardingPossible           WheelchairBoarding = 1
	BoardingNotPossible        WheelchairBoarding = 2
)

// TransferType is the kind of connection between two stops.
type TransferType int

const (
	TransferRecommended TransferType = 0
	TransferTimed       TransferType = 1
	TransferMinimumTime TransferType = 2
	TransferNotPossible TransferType = 3
)

// WheelchairAccessibility tells whether a trip can carry a wheelchair.
type WheelchairAccessibility int

const (
	AccessibilityUnknown     WheelchairAccessibility = 0
	AccessibilityAvailable   WheelchairAccessibility = 1
	AccessibilityUnavailable WheelchairAccessibility = 2
)

// BikeAllowance tells whether bicycles are allowed on a trip.
type BikeAllowance int

const (
	BikesUnknown    BikeAllowance = 0
	BikesAllowed    BikeAllowance = 1
	BikesNotAllowed BikeAllowance = 2
)

// Direction is the travel direction of a trip.
type Direction int

const (
	DirectionOutbound Direction = 0
	DirectionInbound  Direction = 1
)

func ParseServiceAvailability(raw string) ServiceAvailability {
	return parseEnum(raw, ServiceUnavailable, ServiceAvailable)
}

// ParseExceptionType has no default: blank or unknown tokens are unset.
func ParseExceptionType(raw string) Opt[ExceptionType] {
	return parseOptEnum(raw, ExceptionAdded, ExceptionRemoved)
}

// ParsePaymentMethod has no default: blank or unknown tokens are unset.
func ParsePaymentMethod(raw string) Opt[PaymentMethod] {
	return parseOptEnum(raw, PaymentOnBoard, PaymentBeforeBoarding)
}

// ParseTransferState maps a blank field to unlimited transfers.
func ParseTransferState(raw string) TransferState {
	return parseEnum(raw, TransfersUnlimited, TransfersNone, TransfersOnce, TransfersTwice)
}

func ParseTimeExactness(raw string) TimeExactness {
	return parseEnum(raw, FrequencyBased, ScheduleBased)
}

// ParseRouteType accepts the basic route types and the extended
// 100-1799 range. Anything else is unset.
func ParseRouteType(raw string) Opt[RouteType] {
	n, ok := parseCode(raw)
	if !ok {
		return Opt[RouteType]{}
	}
	t := RouteType(n)
	basic := []RouteType{
		RouteTram, RouteSubway, RouteRail, RouteBus, RouteFerry,
		RouteCableTram, RouteAerialLift, RouteFunicular, RouteTrolleybus, RouteMonorail,
	}
	if slices.Contains(basic, t) || (n >= 100 && n < 1800) {
		return Some(t)
	}
	return Opt[RouteType]{}
}

// ParseStopType parses pickup_type and drop_off_type, defaulting to a regular stop.
func ParseStopType(raw string) StopType {
	return parseEnum(raw, StopRegular, StopNone, StopPhoneAgency, StopCoordinateWithDriver)
}

// ParseContinuousStopType parses continuous_pickup and continuous_drop_off,
// which default to no continuous stopping.
func ParseContinuousStopType(raw string) StopType {
	return parseEnum(raw, StopNone, StopRegular, StopPhoneAgency, StopCoordinateWithDriver)
}

func ParseTimepointPrecision(raw string) TimepointPrecision {
	return parseEnum(raw, TimepointExact, TimepointApproximate)
}

func ParseLocationType(raw string) LocationType {
	return parseEnum(raw, LocationStop, LocationStation, LocationEntranceExit,
		LocationGenericNode, LocationBoardingArea)
}

func ParseWheelchairBoarding(raw string) WheelchairBoarding {
	return parseEnum(raw, BoardingUnknownOrInherited, BoardingPossible, BoardingNotPossible)
}

func ParseTransferType(raw string) TransferType {
	return parseEnum(raw, TransferRecommended, TransferTimed, TransferMinimumTime, TransferNotPossible)
}

func ParseWheelchairAccessibility(raw string) WheelchairAccessibility {
	return parseEnum(raw, AccessibilityUnknown, AccessibilityAvailable, AccessibilityUnavailable)
}

func ParseBikeAllowance(raw string) BikeAllowance {
	return parseEnum(raw, BikesUnknown, BikesAllowed, BikesNotAllowed)
}

// ParseDirection has no default: blank or unknown tokens are unset.
func ParseDirection(raw string) Opt[Direction] {
	return parseOptEnum(raw, DirectionOutbound, DirectionInbound)
}

// parseEnum returns the member of known matching raw, or def. def itself
// is always accepted.
func parseEnum[T ~int](raw string, def T, known ...T) T {
	n, ok := parseCode(raw)
	if !ok {
		return def
	}
	if T(n) == def || slices.Contains(known, T(n)) {
		return T(n)
	}
	return def
}

func parseOptEnum[T ~int](raw string, known ...T) Opt[T] {
	n, ok := parseCode(raw)
	if ok && slices.Contains(known, T(n)) {
		return Some(T(n))
	}
	return Opt[T]{}
}

func parseCode(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	return n, err == nil
}
