package presenter

import (
	"github.com/anyproto/gitchat/chatlog"
)

const CName = "presenter"

type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarning
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusInfo:
		return "info"
	case StatusSuccess:
		return "success"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	}
	return "unknown"
}

type Status struct {
	Kind    StatusKind
	Message string
}

// Presenter receives newly surfaced entries in log order and outcome notifications
type Presenter interface {
	ShowEntries(entries []chatlog.Entry)
	ShowStatus(st Status)
}
