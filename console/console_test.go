package console

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/anyproto/gitchat/app"
	"github.com/anyproto/gitchat/config"
	"github.com/anyproto/gitchat/presenter/termview"
	"github.com/anyproto/gitchat/profile"
	"github.com/anyproto/gitchat/reconcile"
	"github.com/anyproto/gitchat/reconcile/mock_reconcile"
	"github.com/anyproto/gitchat/testutil/anymock"
)

var ctx = context.Background()

func TestConsole_Commands(t *testing.T) {
	fx := newFixture(t, "alice", strings.Join([]string{
		"/help",
		"   ",
		"/users",
		"hello world",
		"/name bob builder",
		"/name Dr: X",
		"/name",
		"/refresh",
		"/unknown",
		"/quit",
		"never read",
	}, "\n"))
	fx.rec.EXPECT().Surfaced().Return(3)
	fx.rec.EXPECT().Authors().Return([]string{"alice", "carol"})
	fx.rec.EXPECT().Send(gomock.Any(), "hello world").Return(nil)
	fx.rec.EXPECT().Refresh(gomock.Any()).Return(nil)

	require.NoError(t, fx.c.Run(ctx))
	fx.waitDone(t)

	out := fx.out.String()
	assert.Contains(t, out, "Welcome back, alice!")
	assert.Contains(t, out, "Available Commands:")
	assert.Contains(t, out, "• alice (you)")
	assert.Contains(t, out, "• carol\n")
	assert.Contains(t, out, "Display name changed to: bob builder")
	assert.Contains(t, out, "Can't change display name")
	assert.Contains(t, out, "Auto-syncing every 10 seconds")
	assert.Contains(t, out, "Usage: /name <new_name>")
	assert.Contains(t, out, "Fetching new messages...")
	assert.Contains(t, out, "Unknown command: /unknown")
	assert.Contains(t, out, "Goodbye!")
	assert.NotContains(t, out, "No messages yet")
	assert.Equal(t, "bob builder", fx.prof.AuthorName())
}

func TestConsole_FirstRun(t *testing.T) {
	t.Run("name prompt", func(t *testing.T) {
		fx := newFixture(t, "", " carol \n")
		fx.rec.EXPECT().Surfaced().Return(0)
		require.NoError(t, fx.c.Run(ctx))
		// input ends after the name
		fx.waitDone(t)
		assert.Equal(t, "carol", fx.prof.AuthorName())
		out := fx.out.String()
		assert.Contains(t, out, "Enter your display name> ")
		assert.Contains(t, out, "Welcome, carol! You're ready to chat.")
		assert.Contains(t, out, "No messages yet. Be the first to say hello!")
	})
	t.Run("name that can't be written asks again", func(t *testing.T) {
		fx := newFixture(t, "", "Dr: X\ncarol\n")
		fx.rec.EXPECT().Surfaced().Return(0)
		require.NoError(t, fx.c.Run(ctx))
		fx.waitDone(t)
		assert.Equal(t, "carol", fx.prof.AuthorName())
		out := fx.out.String()
		assert.Contains(t, out, "Can't use this name")
		assert.Equal(t, 2, strings.Count(out, "Enter your display name> "))
	})
	t.Run("empty name", func(t *testing.T) {
		fx := newFixture(t, "", "\n")
		require.ErrorIs(t, fx.c.Run(ctx), profile.ErrEmptyName)
	})
	t.Run("no input", func(t *testing.T) {
		fx := newFixture(t, "", "")
		require.ErrorIs(t, fx.c.Run(ctx), ErrInputClosed)
	})
}

func TestConsole_ManualSync(t *testing.T) {
	fx := newFixture(t, "alice", "/quit\n")
	fx.c.period = 0
	fx.rec.EXPECT().Surfaced().Return(1)
	require.NoError(t, fx.c.Run(ctx))
	fx.waitDone(t)
	out := fx.out.String()
	assert.Contains(t, out, "Auto-sync is off, use /refresh to fetch messages.")
	assert.NotContains(t, out, "Auto-syncing every")
}

func TestConsole_Close(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	fx := newFixtureWithReader(t, "alice", pr)
	fx.rec.EXPECT().Surfaced().Return(1)
	require.NoError(t, fx.c.Run(ctx))
	require.Eventually(t, func() bool {
		return strings.HasSuffix(fx.out.String(), "alice> ")
	}, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, fx.c.Close(ctx))
	fx.waitDone(t)
}

type fixture struct {
	c    *console
	rec  *mock_reconcile.MockReconciler
	prof profile.Profile
	out  *syncBuffer
}

func newFixture(t *testing.T, name, input string) *fixture {
	return newFixtureWithReader(t, name, strings.NewReader(input))
}

func newFixtureWithReader(t *testing.T, name string, in io.Reader) *fixture {
	ctrl := gomock.NewController(t)
	dir := t.TempDir()
	fx := &fixture{
		c:    NewWithReader(in).(*console),
		rec:  mock_reconcile.NewMockReconciler(ctrl),
		prof: profile.NewWithPath(filepath.Join(dir, "profile.yml")),
		out:  &syncBuffer{},
	}
	synced := make(chan struct{})
	close(synced)
	anymock.ExpectComp(fx.rec.EXPECT(), reconcile.CName)
	fx.rec.EXPECT().Synced().Return((<-chan struct{})(synced)).AnyTimes()

	conf := config.Default()
	a := new(app.App)
	a.Register(conf).
		Register(termview.NewWithWriter(fx.out, true)).
		Register(fx.prof).
		Register(fx.rec)
	require.NoError(t, fx.prof.Init(a))
	require.NoError(t, fx.c.Init(a))
	if name != "" {
		require.NoError(t, fx.prof.SetAuthorName(name))
	}
	t.Cleanup(func() {
		_ = fx.c.Close(ctx)
	})
	return fx
}

func (fx *fixture) waitDone(t *testing.T) {
	t.Helper()
	select {
	case <-fx.c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("console didn't finish")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
