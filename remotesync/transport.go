//go:generate mockgen -destination mock_remotesync/mock_remotesync.go github.com/anyproto/gitchat/remotesync Transport
package remotesync

import (
	"context"
	"errors"
)

var (
	// ErrConflict is returned by Transport.Integrate when local and remote edits collide
	ErrConflict = errors.New("integration conflict")
	// ErrRejected is returned by Transport.Publish when the remote advanced past the local base
	ErrRejected = errors.New("publish rejected")
	// ErrNothingToCommit is returned by Transport.Commit when the index has no changes
	ErrNothingToCommit = errors.New("nothing to commit")
)

type Strategy int

const (
	// StrategyRebase replays local-only commits on top of the remote history
	StrategyRebase Strategy = iota
	// StrategyMerge creates a merge commit
	StrategyMerge
)

func (s Strategy) String() string {
	switch s {
	case StrategyRebase:
		return "rebase"
	case StrategyMerge:
		return "merge"
	}
	return "unknown"
}

// Transport is a versioned, remotely synchronizable storage of the shared artifact
type Transport interface {
	// Integrate fetches remote changes and integrates them into the local replica
	Integrate(ctx context.Context, strategy Strategy) error
	// AbortIntegration discards an in-progress integration without touching committed state
	AbortIntegration(ctx context.Context) error
	Stage(ctx context.Context, path string) error
	Commit(ctx context.Context, message string) error
	Publish(ctx context.Context) error
	// Pending returns the number of lines of path present locally but not yet published
	Pending(ctx context.Context, path string) (int, error)
	// Upstream returns the content of path as of the last fetched remote state,
	// nil when the remote has no such file yet
	Upstream(ctx context.Context, path string) ([]byte, error)
}
