// Package console reads user input and turns it into chat commands and messages.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/anyproto/gitchat/app"
	"github.com/anyproto/gitchat/app/logger"
	"github.com/anyproto/gitchat/chatlog"
	"github.com/anyproto/gitchat/config"
	"github.com/anyproto/gitchat/presenter"
	"github.com/anyproto/gitchat/presenter/termview"
	"github.com/anyproto/gitchat/profile"
	"github.com/anyproto/gitchat/reconcile"
)

const CName = "console"

var log = logger.NewNamed(CName)

var ErrInputClosed = errors.New("input closed")

type Console interface {
	app.ComponentRunnable
	// Done is closed when the user quits or the input ends
	Done() <-chan struct{}
}

type configGetter interface {
	GetSync() config.Sync
}

func New() Console {
	return NewWithReader(os.Stdin)
}

func NewWithReader(r io.Reader) Console {
	return &console{
		in:    r,
		lines: make(chan string),
		done:  make(chan struct{}),
	}
}

type console struct {
	in      io.Reader
	lines   chan string
	view    termview.View
	profile profile.Profile
	rec     reconcile.Reconciler
	period  int

	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	doneOnce sync.Once
}

func (c *console) Init(a *app.App) (err error) {
	c.view = a.MustComponent(termview.CName).(termview.View)
	c.profile = a.MustComponent(profile.CName).(profile.Profile)
	c.rec = a.MustComponent(reconcile.CName).(reconcile.Reconciler)
	c.period = a.MustComponent(config.CName).(configGetter).GetSync().PeriodSeconds
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return nil
}

func (c *console) Name() (name string) {
	return CName
}

// Run asks for a display name when none is stored yet and starts the input loop
func (c *console) Run(ctx context.Context) (err error) {
	go c.readLines()
	c.view.Header()
	if name := c.profile.AuthorName(); name != "" {
		c.view.ShowStatus(presenter.Status{Kind: presenter.StatusSuccess, Message: fmt.Sprintf("Welcome back, %s!", name)})
	} else if err = c.askName(ctx); err != nil {
		return err
	}
	go c.loop()
	return nil
}

func (c *console) askName(ctx context.Context) error {
	c.view.Info("Welcome to git chat!")
	for {
		c.view.ShowPrompt("Enter your display name")
		var (
			line string
			ok   bool
		)
		select {
		case line, ok = <-c.lines:
		case <-ctx.Done():
			return ctx.Err()
		}
		c.view.PromptDone()
		if !ok {
			return ErrInputClosed
		}
		err := c.profile.SetAuthorName(line)
		if err == nil {
			break
		}
		if !errors.Is(err, chatlog.ErrInvalidRecord) {
			return err
		}
		c.warn(fmt.Sprintf("Can't use this name: %v", err))
	}
	c.view.ShowStatus(presenter.Status{
		Kind:    presenter.StatusSuccess,
		Message: fmt.Sprintf("Welcome, %s! You're ready to chat.", c.profile.AuthorName()),
	})
	return nil
}

func (c *console) readLines() {
	defer close(c.lines)
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		select {
		case c.lines <- scanner.Text():
		case <-c.done:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Warn("can't read input", zap.Error(err))
	}
}

func (c *console) loop() {
	defer c.finish()
	select {
	case <-c.rec.Synced():
	case <-c.ctx.Done():
		return
	}
	if c.rec.Surfaced() == 0 {
		c.view.Info("No messages yet. Be the first to say hello!")
	}
	if c.period > 0 {
		c.info(fmt.Sprintf("Auto-syncing every %d seconds. Type /help for commands.", c.period))
	} else {
		c.info("Auto-sync is off, use /refresh to fetch messages. Type /help for commands.")
	}
	for {
		c.view.ShowPrompt(c.profile.AuthorName())
		select {
		case line, ok := <-c.lines:
			c.view.PromptDone()
			if !ok {
				return
			}
			if quit := c.handle(line); quit {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// handle executes one input line, the next prompt is shown only after it returns
func (c *console) handle(line string) (quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		c.send(line)
		return false
	}
	args := strings.Fields(line[1:])
	if len(args) == 0 {
		c.warn("Type /help for available commands.")
		return false
	}
	cmd := strings.ToLower(args[0])
	switch cmd {
	case "quit", "exit":
		c.status(presenter.StatusSuccess, "Goodbye!")
		return true
	case "help":
		c.view.Help()
	case "clear":
		c.view.Clear()
		c.view.Header()
		c.info(fmt.Sprintf("Logged in as %s", c.profile.AuthorName()))
	case "refresh":
		c.info("Fetching new messages...")
		if err := c.rec.Refresh(c.ctx); err != nil {
			log.Debug("refresh failed", zap.Error(err))
		}
	case "name":
		c.rename(strings.Join(args[1:], " "))
	case "users":
		authors := c.rec.Authors()
		if len(authors) == 0 {
			c.info("No users have chatted yet")
			return false
		}
		c.view.Users(authors, c.profile.AuthorName())
	default:
		c.warn(fmt.Sprintf("Unknown command: /%s. Type /help for available commands.", cmd))
	}
	return false
}

func (c *console) send(text string) {
	err := c.rec.Send(c.ctx, text)
	switch {
	case err == nil:
	case errors.Is(err, profile.ErrEmptyName):
		c.warn("Set a display name first: /name <name>")
	default:
		// the reconciler already reported it
		log.Debug("send failed", zap.Error(err))
	}
}

func (c *console) rename(name string) {
	if strings.TrimSpace(name) == "" {
		c.warn("Usage: /name <new_name>")
		return
	}
	if err := c.profile.SetAuthorName(name); err != nil {
		c.status(presenter.StatusError, fmt.Sprintf("Can't change display name: %v", err))
		return
	}
	c.status(presenter.StatusSuccess, fmt.Sprintf("Display name changed to: %s", c.profile.AuthorName()))
}

func (c *console) info(msg string) {
	c.status(presenter.StatusInfo, msg)
}

func (c *console) warn(msg string) {
	c.status(presenter.StatusWarning, msg)
}

func (c *console) status(kind presenter.StatusKind, msg string) {
	c.view.ShowStatus(presenter.Status{Kind: kind, Message: msg})
}

func (c *console) finish() {
	c.doneOnce.Do(func() {
		close(c.done)
	})
}

func (c *console) Done() <-chan struct{} {
	return c.done
}

// Close does not wait for a pending read, stdin can't be interrupted
func (c *console) Close(ctx context.Context) (err error) {
	if c.cancel != nil {
		c.cancel()
	}
	c.finish()
	return nil
}
