// Package gittransport implements remotesync.Transport on top of the git binary.
package gittransport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/anyproto/gitchat/app"
	"github.com/anyproto/gitchat/app/logger"
	"github.com/anyproto/gitchat/config"
	"github.com/anyproto/gitchat/remotesync"
)

const CName = remotesync.TransportCName

var log = logger.NewNamed("remotesync.git")

var ErrNotRepository = errors.New("not a git working tree")

type Transport interface {
	app.Component
	remotesync.Transport
}

type configGetter interface {
	GetRepo() config.Repo
}

func New() Transport {
	return &gitTransport{}
}

type gitTransport struct {
	git        runner
	chatFile   string
	unionMerge bool
}

func (g *gitTransport) Init(a *app.App) (err error) {
	repo := a.MustComponent(config.CName).(configGetter).GetRepo()
	g.git = runner{
		binary:  repo.GitBinary,
		dir:     repo.Path,
		timeout: repo.CommandTimeout,
	}
	g.chatFile = repo.ChatFilePath()
	g.unionMerge = repo.UnionMerge
	ctx := context.Background()
	if err = g.checkWorkTree(ctx); err != nil {
		return err
	}
	if g.unionMerge {
		if err = g.ensureUnionMerge(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (g *gitTransport) Name() (name string) {
	return CName
}

func (g *gitTransport) checkWorkTree(ctx context.Context) error {
	out, err := g.git.run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil || strings.TrimSpace(out) != "true" {
		return fmt.Errorf("%w: %s", ErrNotRepository, g.git.dir)
	}
	return nil
}

// ensureUnionMerge registers the union merge driver for the chat file in .git/info/attributes,
// so appends made concurrently by two participants are integrated instead of conflicting
func (g *gitTransport) ensureUnionMerge(ctx context.Context) error {
	top, err := g.git.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return err
	}
	chatAbs, err := filepath.Abs(g.chatFile)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(strings.TrimSpace(top), chatAbs)
	if err != nil {
		return err
	}
	attrPath, err := g.git.run(ctx, "rev-parse", "--git-path", "info/attributes")
	if err != nil {
		return err
	}
	attrPath = g.abs(strings.TrimSpace(attrPath))
	rule := "/" + filepath.ToSlash(rel) + " merge=union"

	data, err := os.ReadFile(attrPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	sc := bufio.NewScanner(strings.NewReader(string(data)))
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == rule {
			return nil
		}
	}
	if err = os.MkdirAll(filepath.Dir(attrPath), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(attrPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	prefix := ""
	if len(data) > 0 && data[len(data)-1] != '\n' {
		prefix = "\n"
	}
	if _, err = f.WriteString(prefix + rule + "\n"); err != nil {
		_ = f.Close()
		return err
	}
	log.Info("union merge enabled", zap.String("rule", rule), zap.String("attributes", attrPath))
	return f.Close()
}

func (g *gitTransport) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(g.git.dir, path)
}

func (g *gitTransport) Integrate(ctx context.Context, strategy remotesync.Strategy) (err error) {
	args := []string{"pull", "--rebase", "--autostash"}
	if strategy == remotesync.StrategyMerge {
		args = []string{"pull", "--no-rebase", "--no-edit"}
	}
	if _, err = g.git.run(ctx, args...); err != nil {
		if isConflict(err) {
			return fmt.Errorf("%w: %w", remotesync.ErrConflict, err)
		}
		return err
	}
	return nil
}

func (g *gitTransport) AbortIntegration(ctx context.Context) (err error) {
	if g.inProgress(ctx, "rebase-merge") || g.inProgress(ctx, "rebase-apply") {
		if _, err = g.git.run(ctx, "rebase", "--abort"); err != nil {
			return err
		}
	}
	if _, verr := g.git.run(ctx, "rev-parse", "-q", "--verify", "MERGE_HEAD"); verr == nil {
		if _, err = g.git.run(ctx, "merge", "--abort"); err != nil {
			return err
		}
	}
	return nil
}

func (g *gitTransport) inProgress(ctx context.Context, gitPath string) bool {
	p, err := g.git.run(ctx, "rev-parse", "--git-path", gitPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(g.abs(strings.TrimSpace(p)))
	return err == nil
}

func (g *gitTransport) Stage(ctx context.Context, path string) (err error) {
	_, err = g.git.run(ctx, "add", "--", g.rel(path))
	return
}

func (g *gitTransport) Commit(ctx context.Context, message string) (err error) {
	path := g.rel(g.chatFile)
	if _, err = g.git.run(ctx, "diff", "--cached", "--quiet", "--", path); err == nil {
		return remotesync.ErrNothingToCommit
	}
	// commit only the chat file even if something else is staged
	_, err = g.git.run(ctx, "commit", "--no-verify", "-m", message, "--", path)
	return
}

func (g *gitTransport) Publish(ctx context.Context) (err error) {
	if _, err = g.git.run(ctx, "push"); err != nil {
		if isRejected(err) {
			return fmt.Errorf("%w: %w", remotesync.ErrRejected, err)
		}
		return err
	}
	return nil
}

func (g *gitTransport) Pending(ctx context.Context, path string) (int, error) {
	out, err := g.git.run(ctx, "diff", "--numstat", "@{upstream}", "--", g.rel(path))
	if err != nil {
		return 0, err
	}
	return parseNumstatAdded(out)
}

func (g *gitTransport) Upstream(ctx context.Context, path string) ([]byte, error) {
	// "./" resolves the path against the working directory instead of the repository root
	out, err := g.git.run(ctx, "show", "@{upstream}:./"+filepath.ToSlash(g.rel(path)))
	if err != nil {
		if isMissingPath(err) {
			return nil, nil
		}
		return nil, err
	}
	return []byte(out), nil
}

func (g *gitTransport) rel(path string) string {
	if !filepath.IsAbs(path) {
		if rel, err := filepath.Rel(g.git.dir, path); err == nil {
			return rel
		}
		return path
	}
	dir, err := filepath.Abs(g.git.dir)
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(dir, path); err == nil {
		return rel
	}
	return path
}

func parseNumstatAdded(out string) (added int, err error) {
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return 0, fmt.Errorf("unexpected numstat line: %q", line)
		}
		// binary files report "-"
		if fields[0] == "-" {
			continue
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, fmt.Errorf("unexpected numstat line: %q", line)
		}
		added += n
	}
	return added, nil
}

func isConflict(err error) bool {
	var cerr *commandError
	if !errors.As(err, &cerr) {
		return false
	}
	out := cerr.out
	return strings.Contains(out, "CONFLICT") ||
		strings.Contains(out, "could not apply") ||
		strings.Contains(out, "Automatic merge failed")
}

func isMissingPath(err error) bool {
	var cerr *commandError
	if !errors.As(err, &cerr) {
		return false
	}
	out := cerr.out
	return strings.Contains(out, "exists on disk, but not in") ||
		(strings.Contains(out, "path '") && strings.Contains(out, "does not exist in"))
}

func isRejected(err error) bool {
	var cerr *commandError
	if !errors.As(err, &cerr) {
		return false
	}
	out := cerr.out
	return strings.Contains(out, "[rejected]") ||
		strings.Contains(out, "fetch first") ||
		strings.Contains(out, "non-fast-forward")
}
