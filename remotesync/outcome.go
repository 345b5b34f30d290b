package remotesync

import (
	"errors"
)

// ErrTransportFailure is returned when a remote operation couldn't complete after the bounded retry
var ErrTransportFailure = errors.New("transport failure")

type Outcome int

const (
	Success Outcome = iota
	Conflict
	TransportFailure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Conflict:
		return "conflict"
	case TransportFailure:
		return "transport_failure"
	}
	return "unknown"
}

// OutcomeOf classifies the result of a transport or RemoteSync call
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrTransportFailure):
		return TransportFailure
	case errors.Is(err, ErrConflict), errors.Is(err, ErrRejected):
		return Conflict
	default:
		return TransportFailure
	}
}
