// Package execqueue runs tasks one at a time in submission order.
package execqueue

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/cheggaaa/mb/v3"
	"go.uber.org/zap"

	"github.com/anyproto/gitchat/app/logger"
)

var log = logger.NewNamed("common.util.execqueue")

var (
	ErrClosed = errors.New("execqueue: closed")
	ErrBusy   = errors.New("execqueue: busy")
)

type Task func(ctx context.Context) error

type task struct {
	ctx  context.Context
	fn   Task
	done chan error
}

func New() *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		ctx:      ctx,
		cancel:   cancel,
		batch:    mb.New[task](0),
		loopDone: make(chan struct{}),
	}
}

type Queue struct {
	ctx      context.Context
	cancel   context.CancelFunc
	batch    *mb.MB[task]
	busy     atomic.Int32
	running  atomic.Bool
	loopDone chan struct{}
}

func (q *Queue) Run() {
	q.running.Store(true)
	go q.loop()
}

// Do enqueues fn and waits for its result
func (q *Queue) Do(ctx context.Context, fn Task) error {
	q.busy.Add(1)
	return q.add(ctx, fn)
}

// TryDo is like Do but returns ErrBusy without enqueueing when a task is queued or running
func (q *Queue) TryDo(ctx context.Context, fn Task) error {
	if !q.busy.CompareAndSwap(0, 1) {
		return ErrBusy
	}
	return q.add(ctx, fn)
}

// Busy returns the number of queued and running tasks
func (q *Queue) Busy() int {
	return int(q.busy.Load())
}

func (q *Queue) add(ctx context.Context, fn Task) error {
	t := task{ctx: ctx, fn: fn, done: make(chan error, 1)}
	if err := q.batch.TryAdd(t); err != nil {
		q.busy.Add(-1)
		if errors.Is(err, mb.ErrClosed) {
			return ErrClosed
		}
		return err
	}
	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-q.loopDone:
		select {
		case err := <-t.done:
			return err
		default:
			return ErrClosed
		}
	}
}

func (q *Queue) loop() {
	defer close(q.loopDone)
	for {
		t, err := q.batch.WaitOne(q.ctx)
		if err != nil {
			log.Debug("close exec loop", zap.Error(err))
			return
		}
		if q.ctx.Err() != nil {
			q.busy.Add(-1)
			t.done <- ErrClosed
			continue
		}
		q.exec(t)
	}
}

func (q *Queue) exec(t task) {
	defer q.busy.Add(-1)
	if err := t.ctx.Err(); err != nil {
		t.done <- err
		return
	}
	t.done <- t.fn(t.ctx)
}

// Close waits for the running task, queued tasks fail with ErrClosed
func (q *Queue) Close() error {
	q.cancel()
	err := q.batch.Close()
	if q.running.Load() {
		<-q.loopDone
	}
	return err
}
