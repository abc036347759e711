package domain

// Status is the session controller's connection state as exposed to the
// presentation layer.
type Status string

const (
	StatusConnecting Status = "connecting"
	StatusOpen       Status = "open"
	StatusClosed     Status = "closed"
	StatusError      Status = "error"
)
