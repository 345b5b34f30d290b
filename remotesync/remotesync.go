package remotesync

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/anyproto/gitchat/app"
	"github.com/anyproto/gitchat/app/logger"
	"github.com/anyproto/gitchat/chatlog"
	"github.com/anyproto/gitchat/metric"
)

const (
	CName = "remotesync"
	// TransportCName is the name the Transport implementation registers under
	TransportCName = "remotesync.transport"
)

var log = logger.NewNamed(CName)

// RemoteSync keeps the local replica convergent with the shared remote copy
type RemoteSync interface {
	app.Component
	// Pull integrates remote changes, a failure leaves the last good local replica in place
	Pull(ctx context.Context) error
	// Push publishes the chat file with a single pull-and-retry on rejection
	Push(ctx context.Context, message string) error
	// Pending returns the number of local lines that are not published yet
	Pending(ctx context.Context) int
	// Settled returns how many leading entries of l are already published in the same order
	Settled(ctx context.Context, l chatlog.Log) int
}

func New() RemoteSync {
	return &remoteSync{}
}

// NewWithTransport binds the given transport instead of looking it up in the app
func NewWithTransport(tr Transport) RemoteSync {
	return &remoteSync{transport: tr}
}

type remoteSync struct {
	transport Transport
	store     chatlog.LogStore
	metrics   *metric.SyncMetrics
}

func (s *remoteSync) Init(a *app.App) (err error) {
	if s.transport == nil {
		s.transport = a.MustComponent(TransportCName).(Transport)
	}
	s.store = a.MustComponent(chatlog.CName).(chatlog.LogStore)
	if m, ok := a.Component(metric.CName).(metric.Metric); ok {
		s.metrics = m.SyncMetrics()
	}
	return nil
}

func (s *remoteSync) Name() (name string) {
	return CName
}

func (s *remoteSync) Pull(ctx context.Context) (err error) {
	err = s.pull(ctx)
	s.metrics.ObservePull(OutcomeOf(err).String())
	return
}

func (s *remoteSync) pull(ctx context.Context) (err error) {
	if err = s.transport.Integrate(ctx, StrategyRebase); err == nil {
		return nil
	}
	log.WarnCtx(ctx, "rebase failed, retrying with merge", zap.Error(err))
	if aerr := s.transport.AbortIntegration(ctx); aerr != nil {
		log.WarnCtx(ctx, "can't abort rebase", zap.Error(aerr))
	}
	if err = s.transport.Integrate(ctx, StrategyMerge); err == nil {
		return nil
	}
	// keep the working tree free of a half-done merge
	if aerr := s.transport.AbortIntegration(ctx); aerr != nil {
		log.WarnCtx(ctx, "can't abort merge", zap.Error(aerr))
	}
	return fmt.Errorf("%w: pull: %w", ErrTransportFailure, err)
}

func (s *remoteSync) Push(ctx context.Context, message string) (err error) {
	err = s.push(ctx, message)
	s.metrics.ObservePush(OutcomeOf(err).String())
	return
}

func (s *remoteSync) push(ctx context.Context, message string) (err error) {
	if err = s.transport.Stage(ctx, s.store.Path()); err != nil {
		return fmt.Errorf("%w: stage: %w", ErrTransportFailure, err)
	}
	// nothing to commit means earlier commits are still waiting for publication
	if err = s.transport.Commit(ctx, message); err != nil && !errors.Is(err, ErrNothingToCommit) {
		return fmt.Errorf("%w: commit: %w", ErrTransportFailure, err)
	}
	if err = s.publish(ctx); err == nil {
		return nil
	}
	log.InfoCtx(ctx, "publish failed, pulling and retrying once", zap.Error(err), metric.Outcome(OutcomeOf(err).String()))
	if perr := s.Pull(ctx); perr != nil {
		log.WarnCtx(ctx, "pull before publish retry failed", zap.Error(perr))
	}
	if err = s.publish(ctx); err != nil {
		return fmt.Errorf("%w: push: %w", ErrTransportFailure, err)
	}
	return nil
}

func (s *remoteSync) publish(ctx context.Context) error {
	s.metrics.PublishAttempt()
	return s.transport.Publish(ctx)
}

func (s *remoteSync) Pending(ctx context.Context) int {
	n, err := s.transport.Pending(ctx, s.store.Path())
	if err != nil {
		log.WarnCtx(ctx, "can't count pending lines", zap.Error(err))
		return 0
	}
	return n
}

func (s *remoteSync) Settled(ctx context.Context, l chatlog.Log) int {
	data, err := s.transport.Upstream(ctx, s.store.Path())
	if err != nil {
		// without a remote-tracking state unpublished lines can only sit at the tail
		log.WarnCtx(ctx, "can't read upstream log", zap.Error(err))
		return max(l.Len()-s.Pending(ctx), 0)
	}
	up := chatlog.ParseLog(data)
	n := min(l.Len(), up.Len())
	for i := 0; i < n; i++ {
		if l.Entries[i].Line() != up.Entries[i].Line() {
			return i
		}
	}
	return n
}
