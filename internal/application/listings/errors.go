package listings

import "errors"

var (
	ErrListingNotFound = errors.New("Listing not found")
	ErrNotOwner        = errors.New("You can only edit your own listings")
	ErrInvalidStatus   = errors.New("Listing cannot move to that status")
	// ErrMediaKindChanged is the message for a saved photo resubmitted as a video or the reverse.
	ErrMediaKindChanged = errors.New("Uploaded media cannot change between photo and video")
)
