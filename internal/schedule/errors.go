package schedule

import "errors"

// Sentinel errors returned by ComputeDailyRequests and the progress helpers.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInvalidDateFormat = errors.New("invalid date format")
	ErrDateBeforeStart   = errors.New("target date is before account start date")
	ErrUpstreamLookup    = errors.New("upstream lookup failed")
)
