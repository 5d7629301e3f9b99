package domain

import "errors"

var (
	// ErrInvalidDate indicates a date string is absent or not a YYYY-MM-DD calendar date.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidInput indicates a business-day span was requested with a missing or invalid bound.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedWeight indicates a weekly weight entry has no week or a non-numeric value.
	ErrMalformedWeight = errors.New("malformed weekly weight")

	// ErrInvalidWeek indicates a week label is not a valid ISO-8601 week.
	ErrInvalidWeek = errors.New("invalid ISO week")

	// ErrWeightOutOfRange indicates a weight value outside [0, MaxWeightValue].
	ErrWeightOutOfRange = errors.New("weight value out of range")

	// ErrLayoutNotFound indicates the requested project/IP pair does not exist.
	ErrLayoutNotFound = errors.New("layout not found")

	// ErrEmptyProjectID indicates a task without a project identifier.
	ErrEmptyProjectID = errors.New("project id cannot be empty")

	// ErrReservedProjectID indicates a project identifier that collides with a
	// fixed API route or cannot be carried in one path segment.
	ErrReservedProjectID = errors.New("project id is reserved")

	// ErrEmptyIPName indicates a task without an IP name.
	ErrEmptyIPName = errors.New("ip name cannot be empty")

	// ErrInvalidStatus indicates an unknown status label.
	ErrInvalidStatus = errors.New("invalid status")
)
