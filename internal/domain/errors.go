package domain

import "errors"

var (
	// ErrInvalidCoordinate reports a malformed ICAO point token.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrInvalidDateTime reports a malformed YYMMDDHHMM token.
	ErrInvalidDateTime = errors.New("invalid date-time")

	// ErrMissingCoordinates rejects a notice with no usable coordinates in
	// either the qualifier line or the free-text body.
	ErrMissingCoordinates = errors.New("missing coordinates")

	// ErrInvalidGeometry reports a missing or non-positive radius. Records
	// carrying it degrade to point geometry.
	ErrInvalidGeometry = errors.New("invalid geometry")
)
