//go:generate mockgen -destination mock_reconcile/mock_reconcile.go github.com/anyproto/gitchat/reconcile Reconciler

// Package reconcile surfaces new chat entries exactly once.
// Timer ticks, manual refreshes and sends are executed one at a time on a single worker.
package reconcile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anyproto/gitchat/app"
	"github.com/anyproto/gitchat/app/logger"
	"github.com/anyproto/gitchat/chatlog"
	"github.com/anyproto/gitchat/config"
	"github.com/anyproto/gitchat/metric"
	"github.com/anyproto/gitchat/presenter"
	"github.com/anyproto/gitchat/profile"
	"github.com/anyproto/gitchat/remotesync"
	"github.com/anyproto/gitchat/util/execqueue"
	"github.com/anyproto/gitchat/util/periodicsync"
	"github.com/anyproto/gitchat/viewcursor"
)

const CName = "reconcile"

var log = logger.NewNamed(CName)

type Trigger int

const (
	TriggerStartup Trigger = iota
	TriggerTick
	TriggerRefresh
	TriggerSend
)

func (t Trigger) String() string {
	switch t {
	case TriggerStartup:
		return "startup"
	case TriggerTick:
		return "tick"
	case TriggerRefresh:
		return "refresh"
	case TriggerSend:
		return "send"
	}
	return "unknown"
}

type Reconciler interface {
	app.ComponentRunnable
	// Refresh pulls and surfaces new entries, waiting for the in-flight synchronization first
	Refresh(ctx context.Context) error
	// Send appends text as the current author and publishes it.
	// A record that could not be published stays local and is retried by later reconciliations.
	Send(ctx context.Context, text string) error
	// Authors returns the authors seen by the last read
	Authors() []string
	// Surfaced returns the number of leading log entries the presenter has shown
	Surfaced() int
	// Synced is closed after the first reconciliation attempt finished
	Synced() <-chan struct{}
}

type configGetter interface {
	GetSync() config.Sync
}

func New() Reconciler {
	return &reconciler{
		synced:   make(chan struct{}),
		surfaced: xxhash.Sum64(nil),
	}
}

type reconciler struct {
	store    chatlog.LogStore
	remote   remotesync.RemoteSync
	view     presenter.Presenter
	profile  profile.Profile
	metrics  *metric.SyncMetrics
	conf     config.Sync
	queue    *execqueue.Queue
	periodic periodicsync.PeriodicSync
	session  string

	// owned by the queue worker
	cursor   viewcursor.Cursor
	snapshot uint64
	surfaced uint64
	shown    []string
	failing  bool

	started    atomic.Bool
	mu         sync.Mutex
	authors    []string
	pos        int
	synced     chan struct{}
	syncedOnce sync.Once
}

func (r *reconciler) Init(a *app.App) (err error) {
	r.store = a.MustComponent(chatlog.CName).(chatlog.LogStore)
	r.remote = a.MustComponent(remotesync.CName).(remotesync.RemoteSync)
	r.view = a.MustComponent(presenter.CName).(presenter.Presenter)
	r.profile = a.MustComponent(profile.CName).(profile.Profile)
	r.conf = a.MustComponent(config.CName).(configGetter).GetSync()
	if m, ok := a.Component(metric.CName).(metric.Metric); ok {
		r.metrics = m.SyncMetrics()
	}
	r.session = uuid.NewString()
	r.queue = execqueue.New()
	r.periodic = periodicsync.NewPeriodicSync(r.conf.PeriodSeconds, r.conf.Timeout(), r.tick, log.With(zap.String("session", r.session)))
	return nil
}

func (r *reconciler) Name() (name string) {
	return CName
}

func (r *reconciler) Run(ctx context.Context) (err error) {
	r.queue.Run()
	r.periodic.Run()
	return nil
}

func (r *reconciler) Synced() <-chan struct{} {
	return r.synced
}

func (r *reconciler) Authors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.authors...)
}

func (r *reconciler) Surfaced() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}

func (r *reconciler) tick(ctx context.Context) error {
	trigger := TriggerTick
	if !r.started.Swap(true) {
		trigger = TriggerStartup
	}
	err := r.queue.TryDo(ctx, func(ctx context.Context) error {
		return r.reconcileWithStatus(r.opCtx(ctx, trigger), trigger)
	})
	if errors.Is(err, execqueue.ErrBusy) {
		r.metrics.TickSkipped()
		log.Debug("tick skipped, synchronization in flight")
		return nil
	}
	// failures are already reported to the presenter
	if err != nil && !errors.Is(err, execqueue.ErrClosed) {
		log.Debug("tick failed", zap.Error(err))
	}
	return nil
}

func (r *reconciler) Refresh(ctx context.Context) error {
	return r.queue.Do(ctx, func(ctx context.Context) error {
		// the next tick comes a full period after a foreground synchronization
		defer r.periodic.Reset()
		ctx, cancel := r.withTimeout(ctx)
		defer cancel()
		return r.reconcileWithStatus(r.opCtx(ctx, TriggerRefresh), TriggerRefresh)
	})
}

func (r *reconciler) Send(ctx context.Context, text string) error {
	author := r.profile.AuthorName()
	if author == "" {
		return profile.ErrEmptyName
	}
	return r.queue.Do(ctx, func(ctx context.Context) error {
		defer r.periodic.Reset()
		ctx, cancel := r.withTimeout(ctx)
		defer cancel()
		return r.send(r.opCtx(ctx, TriggerSend), author, text)
	})
}

func (r *reconciler) send(ctx context.Context, author, text string) (err error) {
	if _, err = r.store.Append(author, text); err != nil {
		log.ErrorCtx(ctx, "can't append message", zap.Error(err))
		r.view.ShowStatus(presenter.Status{Kind: presenter.StatusError, Message: fmt.Sprintf("Failed to send message: %v", err)})
		return err
	}
	if err = r.remote.Push(ctx, commitMessage(author)); err != nil {
		log.WarnCtx(ctx, "message saved locally, publication postponed", zap.Error(err))
		r.view.ShowStatus(presenter.Status{
			Kind:    presenter.StatusWarning,
			Message: "Message saved locally but not published yet, it will be retried on the next sync",
		})
	}
	// the local replica already contains everything push could integrate
	if rerr := r.emit(ctx); rerr != nil {
		r.reportFailure(ctx, TriggerSend, rerr)
		if err == nil {
			err = rerr
		}
	}
	return err
}

func (r *reconciler) reconcileWithStatus(ctx context.Context, trigger Trigger) (err error) {
	start := time.Now()
	defer func() {
		r.metrics.ObserveReconcile(time.Since(start))
		r.syncedOnce.Do(func() { close(r.synced) })
	}()
	if err = r.reconcile(ctx, trigger); err != nil {
		r.reportFailure(ctx, trigger, err)
		return err
	}
	log.DebugCtx(ctx, "reconciled", metric.Cursor(r.cursor.Pos()), metric.TotalDur(time.Since(start)))
	if r.failing {
		r.failing = false
		if trigger == TriggerTick {
			r.view.ShowStatus(presenter.Status{Kind: presenter.StatusInfo, Message: "Sync restored"})
		}
	}
	if trigger == TriggerRefresh {
		r.view.ShowStatus(presenter.Status{Kind: presenter.StatusSuccess, Message: "Messages synced!"})
	}
	return nil
}

func (r *reconciler) reconcile(ctx context.Context, trigger Trigger) (err error) {
	if err = r.remote.Pull(ctx); err != nil {
		if trigger != TriggerStartup {
			return err
		}
		// the local history is still worth showing
		log.WarnCtx(ctx, "initial pull failed", zap.Error(err))
		r.view.ShowStatus(presenter.Status{Kind: presenter.StatusWarning, Message: "Can't reach the remote, showing local history"})
		return r.emit(ctx)
	}
	if pending := r.remote.Pending(ctx); pending > 0 {
		log.InfoCtx(ctx, "retrying publication", metric.Pending(pending))
		if perr := r.remote.Push(ctx, commitMessage(r.profile.AuthorName())); perr != nil {
			log.WarnCtx(ctx, "retry publication failed", zap.Error(perr), metric.Pending(pending))
		}
	}
	return r.emit(ctx)
}

// emit hands the settled entries beyond the cursor to the presenter.
// Settled entries are the leading ones already published in the same order: an unpublished
// line can still move behind incoming ones, so it is surfaced only once published.
func (r *reconciler) emit(ctx context.Context) (err error) {
	l, err := r.store.Read()
	if err != nil {
		return err
	}
	r.setAuthors(l.Authors())
	settled := r.remote.Settled(ctx, l)
	pos := r.cursor.Pos()
	sum := xxhash.Sum64(l.Raw)
	if sum == r.snapshot && settled <= pos {
		return nil
	}
	if pos > l.Len() || prefixSum(l, pos) != r.surfaced {
		return r.resync(ctx, l, settled, sum)
	}
	r.snapshot = sum
	if settled <= pos {
		return nil
	}
	if err = r.cursor.Advance(settled); err != nil {
		return err
	}
	fresh := l.Entries[pos:settled]
	r.show(fresh)
	r.surfaced = prefixSum(l, settled)
	for _, e := range fresh {
		r.shown = append(r.shown, e.Line())
	}
	r.setPos(settled)
	log.DebugCtx(ctx, "entries surfaced", zap.Int("count", len(fresh)), metric.Cursor(settled))
	return nil
}

// resync realigns the cursor with a log whose surfaced prefix changed under it.
// Settled entries that were never shown are surfaced, the rest are skipped.
func (r *reconciler) resync(ctx context.Context, l chatlog.Log, settled int, sum uint64) error {
	pos := r.cursor.Pos()
	seen := make(map[string]int, len(r.shown))
	for _, line := range r.shown {
		seen[line]++
	}
	var (
		fresh []chatlog.Entry
		shown = make([]string, 0, settled)
	)
	for _, e := range l.Entries[:settled] {
		shown = append(shown, e.Line())
		if seen[e.Line()] > 0 {
			seen[e.Line()]--
			continue
		}
		fresh = append(fresh, e)
	}
	log.WarnCtx(ctx, "surfaced entries changed, resynchronizing view",
		zap.Int("surfaced", pos), zap.Int("settled", settled), zap.Int("unseen", len(fresh)))
	r.cursor = viewcursor.Cursor{}
	if err := r.cursor.Advance(settled); err != nil {
		return err
	}
	r.show(fresh)
	r.shown = shown
	r.surfaced = prefixSum(l, settled)
	r.snapshot = sum
	r.setPos(settled)
	return fmt.Errorf("%w: first %d surfaced entries changed", viewcursor.ErrInvariantViolation, pos)
}

func (r *reconciler) show(entries []chatlog.Entry) {
	if len(entries) == 0 {
		return
	}
	r.view.ShowEntries(entries)
	r.metrics.AddEmitted(len(entries))
}

func (r *reconciler) setPos(pos int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos = pos
}

func (r *reconciler) setAuthors(authors []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authors = authors
}

func (r *reconciler) reportFailure(ctx context.Context, trigger Trigger, err error) {
	st := presenter.Status{Kind: presenter.StatusError}
	switch {
	case errors.Is(err, viewcursor.ErrInvariantViolation):
		log.ErrorCtx(ctx, "log changed under surfaced entries", zap.Error(err))
		st.Kind = presenter.StatusWarning
		st.Message = "Chat history was rewritten remotely, the view was resynchronized"
	case errors.Is(err, chatlog.ErrIO):
		log.ErrorCtx(ctx, "can't read chat log", zap.Error(err))
		st.Message = fmt.Sprintf("Can't read chat log: %v", err)
	default:
		log.WarnCtx(ctx, "sync failed", zap.Error(err), metric.Outcome(remotesync.OutcomeOf(err).String()))
		if trigger == TriggerTick {
			// periodic failures are reported once until the next success
			if r.failing {
				return
			}
			st.Kind = presenter.StatusWarning
		}
		r.failing = true
		st.Message = "Failed to sync messages"
	}
	r.view.ShowStatus(st)
}

func (r *reconciler) opCtx(ctx context.Context, trigger Trigger) context.Context {
	return logger.CtxWithFields(ctx, zap.String("session", r.session), zap.String("trigger", trigger.String()))
}

func (r *reconciler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := r.conf.Timeout(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

func (r *reconciler) Close(ctx context.Context) (err error) {
	if r.periodic != nil {
		r.periodic.Close()
	}
	if r.queue != nil {
		err = r.queue.Close()
	}
	return
}

func commitMessage(author string) string {
	return fmt.Sprintf("chat: %s sent a message", author)
}

// prefixSum hashes the first n entries ignoring the final line break,
// which an append adds when the file ended without one
func prefixSum(l chatlog.Log, n int) uint64 {
	return xxhash.Sum64(bytes.TrimRight(l.Raw[:l.PrefixSize(n)], "\r\n"))
}
