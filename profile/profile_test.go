package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyproto/gitchat/app"
	"github.com/anyproto/gitchat/chatlog"
	"github.com/anyproto/gitchat/config"
)

func TestProfile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		p := NewWithPath(filepath.Join(t.TempDir(), "profile.yml"))
		require.NoError(t, p.Init(new(app.App)))
		assert.Equal(t, "", p.AuthorName())
	})
	t.Run("set and reload", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "profile.yml")
		p := NewWithPath(path)
		require.NoError(t, p.Init(new(app.App)))
		require.NoError(t, p.SetAuthorName("  alice "))
		assert.Equal(t, "alice", p.AuthorName())

		p2 := NewWithPath(path)
		require.NoError(t, p2.Init(new(app.App)))
		assert.Equal(t, "alice", p2.AuthorName())
	})
	t.Run("empty name", func(t *testing.T) {
		p := NewWithPath(filepath.Join(t.TempDir(), "profile.yml"))
		require.NoError(t, p.Init(new(app.App)))
		require.ErrorIs(t, p.SetAuthorName("   "), ErrEmptyName)
	})
	t.Run("name that breaks the line format", func(t *testing.T) {
		p := NewWithPath(filepath.Join(t.TempDir(), "profile.yml"))
		require.NoError(t, p.Init(new(app.App)))
		require.NoError(t, p.SetAuthorName("alice"))
		require.ErrorIs(t, p.SetAuthorName("Dr: X"), chatlog.ErrInvalidRecord)
		require.ErrorIs(t, p.SetAuthorName("ali\nce"), chatlog.ErrInvalidRecord)
		assert.Equal(t, "alice", p.AuthorName())
	})
	t.Run("legacy json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".chatconfig.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"username": "bob"}`), 0644))
		p := NewWithPath(path)
		require.NoError(t, p.Init(new(app.App)))
		assert.Equal(t, "bob", p.AuthorName())
	})
	t.Run("path from config", func(t *testing.T) {
		conf := config.Default()
		conf.Profile.Path = filepath.Join(t.TempDir(), "p.yml")
		a := new(app.App)
		p := New()
		a.Register(conf).Register(p)
		require.NoError(t, p.Init(a))
		require.NoError(t, p.SetAuthorName("carol"))
		_, err := os.Stat(conf.Profile.Path)
		require.NoError(t, err)
	})
}
