package messaging

import "errors"

var (
	ErrListingNotFound = errors.New("Listing not found")
	ErrOwnThread       = errors.New("You cannot message yourself about your own listing")
	ErrNotMember       = errors.New("You are not part of this conversation")
	ErrEmptyBody       = errors.New("Message cannot be empty")
	ErrBodyTooLong     = errors.New("Message is too long")

	ErrRealtimeUnavailable = errors.New("Live updates are unavailable")
)
