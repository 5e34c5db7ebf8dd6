package domain

import "errors"

var (
	// ErrNoName is returned when no name candidate passes validation
	ErrNoName = errors.New("no valid product name")

	// ErrNoUnitPrice is returned when no unit price token can be found on a card
	ErrNoUnitPrice = errors.New("no unit price found")

	// ErrPriceOutOfRange is returned when the resolved sale price is outside the store bounds
	ErrPriceOutOfRange = errors.New("price outside plausible range")

	// ErrUnknownStore is returned when no extraction profile exists for a store
	ErrUnknownStore = errors.New("unknown store")

	// ErrMissingBatch is returned by a strict merge when a store batch is absent
	ErrMissingBatch = errors.New("missing store batch")

	// ErrFetchFailed is returned when a listing page cannot be retrieved
	ErrFetchFailed = errors.New("page fetch failed")

	// ErrDatasetNotFound is returned when no published dataset exists yet
	ErrDatasetNotFound = errors.New("published dataset not found")

	// ErrInvalidRow is returned when a tabular row cannot be read back into a record
	ErrInvalidRow = errors.New("invalid row")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// RejectionReason maps a card rejection onto a short stable label used in run statistics
func RejectionReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoName):
		return "no_name"
	case errors.Is(err, ErrNoUnitPrice):
		return "no_price"
	case errors.Is(err, ErrPriceOutOfRange):
		return "price_out_of_range"
	default:
		return "other"
	}
}
