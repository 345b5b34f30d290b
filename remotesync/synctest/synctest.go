// Package synctest provides a deterministic in-memory transport for exercising the
// synchronization engine with several participants sharing one remote.
package synctest

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"slices"
	"sync"

	"github.com/anyproto/gitchat/app"
	"github.com/anyproto/gitchat/remotesync"
)

type Op string

const (
	OpIntegrate Op = "integrate"
	OpAbort     Op = "abort"
	OpStage     Op = "stage"
	OpCommit    Op = "commit"
	OpPublish   Op = "publish"
	OpPending   Op = "pending"
	OpUpstream  Op = "upstream"
)

// Remote is the shared published log
type Remote struct {
	mu    sync.Mutex
	lines []string
}

func NewRemote(lines ...string) *Remote {
	return &Remote{lines: slices.Clone(lines)}
}

func (r *Remote) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.lines)
}

// Append publishes lines directly, as if another participant pushed them
func (r *Remote) Append(lines ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, lines...)
}

// Rewrite replaces the published history, as a forced push would
func (r *Remote) Rewrite(lines ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = slices.Clone(lines)
}

// Participant is one working copy of the remote backed by a real file at path.
// It keeps the committed lines, the last fetched remote lines and the staged lines apart,
// so rebases, merges and unpublished commits behave like they do in a git clone.
type Participant struct {
	remote *Remote
	path   string

	mu              sync.Mutex
	head            []string
	fetched         []string
	staged          []string
	integrateFailed bool
	faults          map[Op][]error
	calls           map[Op]int
	hook            func(op Op)
}

func NewParticipant(remote *Remote, path string) *Participant {
	return &Participant{
		remote: remote,
		path:   path,
		faults: make(map[Op][]error),
		calls:  make(map[Op]int),
	}
}

func (p *Participant) Init(a *app.App) (err error) {
	return nil
}

func (p *Participant) Name() (name string) {
	return remotesync.TransportCName
}

// FailNext makes the next calls of op return errs in order, a nil error lets the call through
func (p *Participant) FailNext(op Op, errs ...error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.faults[op] = append(p.faults[op], errs...)
}

// OnCall registers a hook invoked at the start of every operation, outside of the lock
func (p *Participant) OnCall(hook func(op Op)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hook = hook
}

func (p *Participant) Calls(op Op) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[op]
}

// Clone brings the local file to the current remote state, like a fresh checkout
func (p *Participant) Clone() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	remote := p.remote.Lines()
	p.head = remote
	p.fetched = slices.Clone(remote)
	p.staged = slices.Clone(remote)
	return p.writeLines(remote)
}

func (p *Participant) begin(op Op) (err error) {
	p.mu.Lock()
	hook := p.hook
	p.mu.Unlock()
	if hook != nil {
		hook(op)
	}
	p.mu.Lock()
	p.calls[op]++
	if q := p.faults[op]; len(q) > 0 {
		err = q[0]
		p.faults[op] = q[1:]
	}
	return
}

// Integrate replays local commits on top of the remote for StrategyRebase.
// StrategyMerge behaves like the union merge driver: local lines stay in place
// and incoming remote lines follow them.
func (p *Participant) Integrate(ctx context.Context, strategy remotesync.Strategy) error {
	if err := p.begin(OpIntegrate); err != nil {
		p.integrateFailed = errors.Is(err, remotesync.ErrConflict)
		p.mu.Unlock()
		return err
	}
	defer p.mu.Unlock()
	if p.integrateFailed {
		return errors.New("integration in progress, abort first")
	}
	lines, err := p.readLines()
	if err != nil {
		return err
	}
	uncommitted := subtract(lines, p.head)
	remote := p.remote.Lines()
	if strategy == remotesync.StrategyMerge {
		p.head = append(p.head, subtract(remote, p.fetched)...)
	} else {
		p.head = append(slices.Clone(remote), subtract(p.head, p.fetched)...)
	}
	p.fetched = remote
	return p.writeLines(append(slices.Clone(p.head), uncommitted...))
}

func (p *Participant) AbortIntegration(ctx context.Context) error {
	if err := p.begin(OpAbort); err != nil {
		p.mu.Unlock()
		return err
	}
	defer p.mu.Unlock()
	p.integrateFailed = false
	return nil
}

func (p *Participant) Stage(ctx context.Context, path string) error {
	if err := p.begin(OpStage); err != nil {
		p.mu.Unlock()
		return err
	}
	defer p.mu.Unlock()
	lines, err := p.readLines()
	if err != nil {
		return err
	}
	p.staged = lines
	return nil
}

func (p *Participant) Commit(ctx context.Context, message string) error {
	if err := p.begin(OpCommit); err != nil {
		p.mu.Unlock()
		return err
	}
	defer p.mu.Unlock()
	if slices.Equal(p.staged, p.head) {
		return remotesync.ErrNothingToCommit
	}
	p.head = slices.Clone(p.staged)
	return nil
}

// Publish is accepted only when the remote did not move since the last fetch
func (p *Participant) Publish(ctx context.Context) error {
	if err := p.begin(OpPublish); err != nil {
		p.mu.Unlock()
		return err
	}
	defer p.mu.Unlock()
	p.remote.mu.Lock()
	defer p.remote.mu.Unlock()
	if !slices.Equal(p.remote.lines, p.fetched) {
		return remotesync.ErrRejected
	}
	p.remote.lines = slices.Clone(p.head)
	p.fetched = slices.Clone(p.head)
	return nil
}

func (p *Participant) Pending(ctx context.Context, path string) (int, error) {
	if err := p.begin(OpPending); err != nil {
		p.mu.Unlock()
		return 0, err
	}
	defer p.mu.Unlock()
	lines, err := p.readLines()
	if err != nil {
		return 0, err
	}
	return len(subtract(lines, p.fetched)), nil
}

func (p *Participant) Upstream(ctx context.Context, path string) ([]byte, error) {
	if err := p.begin(OpUpstream); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	defer p.mu.Unlock()
	if len(p.fetched) == 0 {
		return nil, nil
	}
	return joinLines(p.fetched), nil
}

func (p *Participant) readLines() ([]string, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var lines []string
	for _, l := range bytes.Split(data, []byte{'\n'}) {
		if len(bytes.TrimSpace(l)) == 0 {
			continue
		}
		lines = append(lines, string(l))
	}
	return lines, nil
}

func (p *Participant) writeLines(lines []string) error {
	return os.WriteFile(p.path, joinLines(lines), 0644)
}

func joinLines(lines []string) []byte {
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// subtract returns the lines of a that are left after removing one occurrence of every line of b
func subtract(a, b []string) (rest []string) {
	counts := make(map[string]int, len(b))
	for _, l := range b {
		counts[l]++
	}
	for _, l := range a {
		if counts[l] > 0 {
			counts[l]--
			continue
		}
		rest = append(rest, l)
	}
	return
}
