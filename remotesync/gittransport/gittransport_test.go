package gittransport

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyproto/gitchat/app"
	"github.com/anyproto/gitchat/config"
	"github.com/anyproto/gitchat/remotesync"
)

var ctx = context.Background()

func TestParseNumstatAdded(t *testing.T) {
	n, err := parseNumstatAdded("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = parseNumstatAdded("2\t0\tchat.txt\n")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = parseNumstatAdded("-\t-\timage.png\n1\t0\tchat.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = parseNumstatAdded("garbage")
	require.Error(t, err)
}

func TestClassify(t *testing.T) {
	conflict := &commandError{args: []string{"pull"}, out: "CONFLICT (content): Merge conflict in chat.txt", err: errors.New("exit status 1")}
	rejected := &commandError{args: []string{"push"}, out: " ! [rejected]        main -> main (fetch first)", err: errors.New("exit status 1")}
	assert.True(t, isConflict(conflict))
	assert.False(t, isConflict(rejected))
	assert.True(t, isRejected(rejected))
	assert.False(t, isRejected(conflict))
	assert.False(t, isConflict(errors.New("plain")))
	missing := &commandError{args: []string{"show"}, out: "fatal: path 'chat.txt' does not exist in '@{upstream}'", err: errors.New("exit status 128")}
	assert.True(t, isMissingPath(missing))
	assert.False(t, isMissingPath(conflict))
	assert.Contains(t, conflict.Error(), "git pull")
}

// repoFixture is a bare remote with working clones, it needs the git binary
type repoFixture struct {
	t      *testing.T
	remote string
	root   string
}

func newRepoFixture(t *testing.T) *repoFixture {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary is not available")
	}
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	fx := &repoFixture{t: t, root: t.TempDir()}
	fx.remote = filepath.Join(fx.root, "remote.git")
	fx.git(fx.root, "init", "--bare", fx.remote)
	fx.git(fx.remote, "symbolic-ref", "HEAD", "refs/heads/main")
	return fx
}

func (fx *repoFixture) git(dir string, args ...string) string {
	fx.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(fx.t, err, "git %s: %s", strings.Join(args, " "), out)
	return string(out)
}

func (fx *repoFixture) clone(name string) string {
	dir := filepath.Join(fx.root, name)
	fx.git(fx.root, "clone", fx.remote, dir)
	fx.git(dir, "config", "user.name", name)
	fx.git(dir, "config", "user.email", name+"@example.org")
	fx.git(dir, "config", "commit.gpgsign", "false")
	return dir
}

func (fx *repoFixture) seed() {
	dir := fx.clone("seed")
	fx.git(dir, "symbolic-ref", "HEAD", "refs/heads/main")
	require.NoError(fx.t, os.WriteFile(filepath.Join(dir, "chat.txt"), []byte("[2024-01-01 00:00:00] seed: hello\n"), 0644))
	fx.git(dir, "add", "chat.txt")
	fx.git(dir, "commit", "-m", "seed")
	fx.git(dir, "push", "-u", "origin", "main")
}

func (fx *repoFixture) transport(dir string) *gitTransport {
	conf := config.Default()
	conf.Repo.Path = dir
	conf.Repo.CommandTimeout = time.Minute
	a := new(app.App)
	tr := New().(*gitTransport)
	a.Register(conf).Register(tr)
	require.NoError(fx.t, tr.Init(a))
	return tr
}

func appendLine(t *testing.T, dir, line string) {
	f, err := os.OpenFile(filepath.Join(dir, "chat.txt"), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(line + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestGitTransport_Init(t *testing.T) {
	t.Run("not a repository", func(t *testing.T) {
		if _, err := exec.LookPath("git"); err != nil {
			t.Skip("git binary is not available")
		}
		conf := config.Default()
		conf.Repo.Path = t.TempDir()
		a := new(app.App)
		tr := New()
		a.Register(conf).Register(tr)
		require.ErrorIs(t, tr.Init(a), ErrNotRepository)
	})
	t.Run("union merge rule is written once", func(t *testing.T) {
		fx := newRepoFixture(t)
		fx.seed()
		dir := fx.clone("alice")
		fx.transport(dir)
		fx.transport(dir)
		data, err := os.ReadFile(filepath.Join(dir, ".git", "info", "attributes"))
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(string(data), "/chat.txt merge=union"))
	})
}

func TestGitTransport_ConcurrentAppend(t *testing.T) {
	fx := newRepoFixture(t)
	fx.seed()
	aliceDir, bobDir := fx.clone("alice"), fx.clone("bob")
	alice, bob := fx.transport(aliceDir), fx.transport(bobDir)

	// alice appends and publishes
	appendLine(t, aliceDir, "[2024-01-01 00:00:01] alice: hello")
	pending, err := alice.Pending(ctx, filepath.Join(aliceDir, "chat.txt"))
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
	require.NoError(t, alice.Stage(ctx, filepath.Join(aliceDir, "chat.txt")))
	require.NoError(t, alice.Commit(ctx, "chat: alice sent a message"))
	require.ErrorIs(t, alice.Commit(ctx, "again"), remotesync.ErrNothingToCommit)
	require.NoError(t, alice.Publish(ctx))

	// bob holds a stale replica
	appendLine(t, bobDir, "[2024-01-01 00:00:02] bob: hi")
	require.NoError(t, bob.Stage(ctx, filepath.Join(bobDir, "chat.txt")))
	require.NoError(t, bob.Commit(ctx, "chat: bob sent a message"))
	require.ErrorIs(t, bob.Publish(ctx), remotesync.ErrRejected)

	require.NoError(t, bob.Integrate(ctx, remotesync.StrategyRebase))
	require.NoError(t, bob.Publish(ctx))
	pending, err = bob.Pending(ctx, filepath.Join(bobDir, "chat.txt"))
	require.NoError(t, err)
	assert.Equal(t, 0, pending)

	require.NoError(t, alice.Integrate(ctx, remotesync.StrategyRebase))
	want := "[2024-01-01 00:00:00] seed: hello\n" +
		"[2024-01-01 00:00:01] alice: hello\n" +
		"[2024-01-01 00:00:02] bob: hi\n"
	for _, dir := range []string{aliceDir, bobDir} {
		data, err := os.ReadFile(filepath.Join(dir, "chat.txt"))
		require.NoError(t, err)
		assert.Equal(t, want, string(data))
	}
	require.NoError(t, alice.AbortIntegration(ctx), "nothing in progress is not an error")
}

func TestGitTransport_MergeUpstream(t *testing.T) {
	fx := newRepoFixture(t)
	fx.seed()
	aliceDir, bobDir := fx.clone("alice"), fx.clone("bob")
	alice, bob := fx.transport(aliceDir), fx.transport(bobDir)
	alicePath := filepath.Join(aliceDir, "chat.txt")

	appendLine(t, aliceDir, "[2024-01-01 00:00:01] alice: hi")
	require.NoError(t, alice.Stage(ctx, alicePath))
	require.NoError(t, alice.Commit(ctx, "chat: alice sent a message"))

	appendLine(t, bobDir, "[2024-01-01 00:00:02] bob: again")
	require.NoError(t, bob.Stage(ctx, filepath.Join(bobDir, "chat.txt")))
	require.NoError(t, bob.Commit(ctx, "chat: bob sent a message"))
	require.NoError(t, bob.Publish(ctx))

	// the union driver keeps our lines before theirs
	require.NoError(t, alice.Integrate(ctx, remotesync.StrategyMerge))
	data, err := os.ReadFile(alicePath)
	require.NoError(t, err)
	assert.Equal(t, "[2024-01-01 00:00:00] seed: hello\n"+
		"[2024-01-01 00:00:01] alice: hi\n"+
		"[2024-01-01 00:00:02] bob: again\n", string(data))

	up, err := alice.Upstream(ctx, alicePath)
	require.NoError(t, err)
	assert.Equal(t, "[2024-01-01 00:00:00] seed: hello\n"+
		"[2024-01-01 00:00:02] bob: again\n", string(up))

	up, err = alice.Upstream(ctx, filepath.Join(aliceDir, "other.txt"))
	require.NoError(t, err)
	assert.Nil(t, up)
}
