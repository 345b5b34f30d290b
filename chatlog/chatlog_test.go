package chatlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyproto/gitchat/app"
	"github.com/anyproto/gitchat/config"
)

var ctxTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	*logStore
	path string
}

func newFixture(t *testing.T) *fixture {
	path := filepath.Join(t.TempDir(), "chat.txt")
	s := NewWithPath(path).(*logStore)
	s.now = func() time.Time { return ctxTime }
	return &fixture{logStore: s, path: path}
}

func TestLogStore_Read(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		fx := newFixture(t)
		l, err := fx.Read()
		require.NoError(t, err)
		assert.Equal(t, 0, l.Len())
	})
	t.Run("malformed line is kept", func(t *testing.T) {
		fx := newFixture(t)
		require.NoError(t, os.WriteFile(fx.path, []byte("[2024-01-01 00:00:00] alice: hi there\n%%garbage## line\n"), 0644))
		l, err := fx.Read()
		require.NoError(t, err)
		require.Equal(t, 2, l.Len())
		assert.True(t, l.Entries[0].IsParsed())
		assert.False(t, l.Entries[1].IsParsed())
		assert.Equal(t, "%%garbage## line", l.Entries[1].Line())
		assert.Equal(t, []string{"alice"}, l.Authors())
	})
	t.Run("unreadable", func(t *testing.T) {
		fx := newFixture(t)
		require.NoError(t, os.Mkdir(fx.path, 0755))
		_, err := fx.Read()
		require.ErrorIs(t, err, ErrIO)
	})
}

func TestLogStore_Append(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		fx := newFixture(t)
		rec, err := fx.Append("alice", "hi there")
		require.NoError(t, err)
		assert.Equal(t, ctxTime, rec.Timestamp)

		data, err := os.ReadFile(fx.path)
		require.NoError(t, err)
		assert.Equal(t, "[2024-01-01 00:00:00] alice: hi there\n", string(data))

		l, err := fx.Read()
		require.NoError(t, err)
		require.Equal(t, 1, l.Len())
		assert.Equal(t, rec, l.Entries[0].Record)
	})
	t.Run("sub second precision is dropped", func(t *testing.T) {
		fx := newFixture(t)
		fx.now = func() time.Time { return ctxTime.Add(1500 * time.Millisecond) }
		rec, err := fx.Append("bob", "x")
		require.NoError(t, err)
		assert.Equal(t, ctxTime.Add(time.Second), rec.Timestamp)
	})
	t.Run("appends only", func(t *testing.T) {
		fx := newFixture(t)
		require.NoError(t, os.WriteFile(fx.path, []byte("manual line without break"), 0644))
		_, err := fx.Append("alice", "one")
		require.NoError(t, err)
		_, err = fx.Append("bob", "two")
		require.NoError(t, err)
		data, err := os.ReadFile(fx.path)
		require.NoError(t, err)
		assert.Equal(t, "manual line without break\n"+
			"[2024-01-01 00:00:00] alice: one\n"+
			"[2024-01-01 00:00:00] bob: two\n", string(data))
	})
	t.Run("invalid record", func(t *testing.T) {
		fx := newFixture(t)
		for _, tc := range []struct{ author, text string }{
			{"", "text"},
			{"alice", ""},
			{"al: ice", "text"},
			{"alice", "two\nlines"},
		} {
			_, err := fx.Append(tc.author, tc.text)
			require.ErrorIs(t, err, ErrInvalidRecord, "%q %q", tc.author, tc.text)
		}
		_, err := os.Stat(fx.path)
		assert.True(t, os.IsNotExist(err))
	})
	t.Run("write failure", func(t *testing.T) {
		fx := newFixture(t)
		fx.path = filepath.Join(fx.path, "missing-dir", "chat.txt")
		fx.logStore.path = fx.path
		_, err := fx.Append("alice", "hi")
		require.ErrorIs(t, err, ErrIO)
	})
}

func TestLogStore_Init(t *testing.T) {
	conf := config.Default()
	conf.Repo.Path = t.TempDir()
	a := new(app.App)
	s := New()
	a.Register(conf).Register(s)
	require.NoError(t, s.Init(a))
	assert.Equal(t, filepath.Join(conf.Repo.Path, "chat.txt"), s.Path())
}
