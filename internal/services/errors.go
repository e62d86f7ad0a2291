// Package services defines the business logic for feed ingestion, listing
// storage, and search. This file centralizes common service-level error values
// so that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

// Reload-related errors.
var (
	// ErrProviderNotFound indicates that the named provider is not configured.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrReloadBusy is returned when a reload is requested for a provider
	// whose previous reload cycle is still running.
	ErrReloadBusy = errors.New("reload already in progress")

	// ErrFetchFailed wraps transport-level failures while downloading a feed.
	ErrFetchFailed = errors.New("feed fetch failed")

	// ErrParseFailed wraps payload-level failures: the feed body could not be
	// decoded at all (malformed envelope, unknown format).
	ErrParseFailed = errors.New("feed parse failed")
)

// Listing-related errors.
var (
	// ErrListingNotFound indicates that the requested listing does not exist.
	ErrListingNotFound = errors.New("listing not found")

	// ErrConsistency is returned when an incoming record contradicts the
	// recorded identity of a listing: its (provider, source id) alias already
	// points at a different stable id than the one its fingerprint matched.
	ErrConsistency = errors.New("listing identity conflict")
)
