// Package freshness implements the shared fetch-or-reuse gate for cached
// external data. Market data, default mortgage assumptions, and mortgage
// calculations all follow the same shape: reuse the most recently inserted
// row for a key while it is inside the freshness window, otherwise call the
// provider and persist a new immutable row.
package freshness

import "time"

// Window is how long a cached row stays valid before a provider refresh.
const Window = 24 * time.Hour

// GetOrRefresh resolves one cached-data category.
//
// lookup must return the most recent row for the identity key inserted at or
// after the given cutoff (zero-or-one row; nil means stale or absent).
// refresh is only invoked on a miss; it fetches from the provider, persists
// the new row, and returns it. The returned bool reports whether a refresh
// happened, so callers can observe that a fresh hit made zero provider calls.
func GetOrRefresh[T any](
	lookup func(since time.Time) (*T, error),
	refresh func() (*T, error),
	now time.Time,
	window time.Duration,
) (*T, bool, error) {
	row, err := lookup(now.Add(-window))
	if err != nil {
		return nil, false, err
	}
	if row != nil {
		return row, false, nil
	}

	row, err = refresh()
	if err != nil {
		return nil, false, err
	}
	return row, true, nil
}
