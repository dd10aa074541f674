package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrVenueInit    = errors.New("venue initialization failed")
	ErrNoVenues     = errors.New("no venues initialized")
	ErrStreamClosed = errors.New("order book stream closed")
	ErrBadSnapshot  = errors.New("malformed order book snapshot")
	ErrUnknownVenue = errors.New("unknown venue")
)
