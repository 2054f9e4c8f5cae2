package constants

const (
	FeedLimit         = 50
	CommentLimit      = 50
	MessageLimit      = 200
	MessageMaxLength  = 4000
	CommentMaxLength  = 2000
	ListingEventLimit = 100
)
