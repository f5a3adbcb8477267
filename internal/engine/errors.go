package engine

import "errors"

var (
	// ErrProviderUnavailable means a required external provider call failed.
	// The enclosing transaction rolls back entirely.
	ErrProviderUnavailable = errors.New("external provider unavailable")

	// ErrMissingReference means an expected property or mortgage calculation
	// row was absent.
	ErrMissingReference = errors.New("missing reference row")

	// ErrMissingTaxYear means the records provider reported tax data but not
	// for the year the engine indexes by (last calendar year). This is
	// reported rather than silently defaulted.
	ErrMissingTaxYear = errors.New("tax data present but missing prior year")
)
