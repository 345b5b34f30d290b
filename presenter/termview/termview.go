// Package termview renders the chat to a terminal.
package termview

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/anyproto/gitchat/app"
	"github.com/anyproto/gitchat/chatlog"
	"github.com/anyproto/gitchat/presenter"
)

const CName = presenter.CName

type View interface {
	app.Component
	presenter.Presenter
	Header()
	Help()
	Users(authors []string, you string)
	Clear()
	Info(format string, args ...any)
	// ShowPrompt prints the prompt and remembers it so asynchronous output can redraw it
	ShowPrompt(prompt string)
	// PromptDone tells the view the user submitted the current line
	PromptDone()
}

func New() View {
	return NewWithWriter(os.Stdout, !isTerminal(os.Stdout))
}

func NewWithWriter(w io.Writer, noColor bool) View {
	v := &view{out: w, tty: !noColor}
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
		return c
	}
	v.dim = mk(color.Faint)
	v.header = mk(color.BgBlue, color.FgWhite, color.Bold)
	v.title = mk(color.FgCyan, color.Bold)
	v.cmd = mk(color.FgYellow)
	v.you = mk(color.FgGreen)
	v.ok = mk(color.FgGreen)
	v.status = map[presenter.StatusKind]*color.Color{
		presenter.StatusInfo:    mk(color.FgBlue, color.Faint),
		presenter.StatusSuccess: mk(color.FgGreen, color.Faint),
		presenter.StatusWarning: mk(color.FgYellow, color.Faint),
		presenter.StatusError:   mk(color.FgRed, color.Faint),
	}
	v.palette = presenter.NewPalette(
		mk(color.FgCyan, color.Bold),
		mk(color.FgMagenta, color.Bold),
		mk(color.FgYellow, color.Bold),
		mk(color.FgGreen, color.Bold),
		mk(color.FgBlue, color.Bold),
	)
	return v
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type view struct {
	mu      sync.Mutex
	out     io.Writer
	tty     bool
	prompt  string
	waiting bool

	dim, header, title, cmd, you, ok *color.Color
	status                           map[presenter.StatusKind]*color.Color
	palette                          *presenter.Palette[*color.Color]
}

func (v *view) Init(a *app.App) (err error) {
	return nil
}

func (v *view) Name() (name string) {
	return CName
}

// around hides the pending prompt while fn writes and draws it again afterwards
func (v *view) around(fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.waiting && v.tty {
		fmt.Fprint(v.out, "\r\x1b[2K")
	} else if v.waiting {
		fmt.Fprintln(v.out)
	}
	fn()
	if v.waiting {
		fmt.Fprint(v.out, v.prompt)
	}
}

func (v *view) ShowEntries(entries []chatlog.Entry) {
	if len(entries) == 0 {
		return
	}
	v.around(func() {
		for _, e := range entries {
			v.writeEntry(e)
		}
	})
}

func (v *view) writeEntry(e chatlog.Entry) {
	if !e.IsParsed() {
		fmt.Fprintln(v.out, e.Line())
		return
	}
	r := e.Record
	fmt.Fprintf(v.out, "%s %s: %s\n",
		v.dim.Sprintf("[%s]", r.Timestamp.Format(chatlog.TimeLayout)),
		v.palette.For(r.Author).Sprint(r.Author),
		r.Text,
	)
}

func (v *view) ShowStatus(st presenter.Status) {
	c, ok := v.status[st.Kind]
	if !ok {
		c = v.status[presenter.StatusInfo]
	}
	v.around(func() {
		fmt.Fprintf(v.out, "%s %s\n", c.Sprintf("[%s]", strings.ToUpper(st.Kind.String())), st.Message)
	})
}

func (v *view) Info(format string, args ...any) {
	v.around(func() {
		fmt.Fprintf(v.out, format+"\n", args...)
	})
}

func (v *view) Header() {
	v.around(func() {
		for _, l := range []string{
			"╔════════════════════════════════════════════════════════════╗",
			"║                      git chat                              ║",
			"║     Type /help for commands • Messages sync via Git        ║",
			"╚════════════════════════════════════════════════════════════╝",
		} {
			fmt.Fprintln(v.out, v.header.Sprint(l))
		}
		fmt.Fprintln(v.out)
	})
}

func (v *view) Help() {
	v.around(func() {
		fmt.Fprintln(v.out)
		fmt.Fprintln(v.out, v.title.Sprint("Available Commands:"))
		for _, l := range [][2]string{
			{"/refresh", "Manually fetch new messages"},
			{"/clear", "Clear the terminal screen"},
			{"/name <name>", "Change your display name"},
			{"/users", "Show all users who have chatted"},
			{"/help", "Show this help message"},
			{"/quit or /exit", "Exit the chat"},
		} {
			fmt.Fprintf(v.out, "%s - %s\n", v.cmd.Sprintf("%-15s", l[0]), l[1])
		}
		fmt.Fprintln(v.out)
	})
}

func (v *view) Users(authors []string, you string) {
	v.around(func() {
		fmt.Fprintln(v.out)
		fmt.Fprintln(v.out, v.title.Sprint("Users who have chatted:"))
		for _, a := range authors {
			suffix := ""
			if a == you {
				suffix = " " + v.dim.Sprint("(you)")
			}
			fmt.Fprintf(v.out, "  %s%s\n", v.palette.For(a).Sprint("• "+a), suffix)
		}
		fmt.Fprintln(v.out)
	})
}

func (v *view) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.tty {
		fmt.Fprint(v.out, "\x1b[2J\x1b[H")
	}
}

func (v *view) ShowPrompt(prompt string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.prompt = v.you.Sprint(prompt) + "> "
	v.waiting = true
	fmt.Fprint(v.out, v.prompt)
}

func (v *view) PromptDone() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.waiting = false
}
