package termview

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/anyproto/gitchat/chatlog"
	"github.com/anyproto/gitchat/presenter"
)

func newPlainView() (*view, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	return NewWithWriter(buf, true).(*view), buf
}

func TestView_ShowEntries(t *testing.T) {
	v, buf := newPlainView()
	v.ShowEntries([]chatlog.Entry{
		{Kind: chatlog.EntryParsed, Record: chatlog.Record{
			Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Author:    "alice",
			Text:      "hi there",
		}},
		chatlog.ParseLine("just noise"),
	})
	assert.Equal(t, "[2024-01-01 00:00:00] alice: hi there\njust noise\n", buf.String())
}

func TestView_ShowStatus(t *testing.T) {
	v, buf := newPlainView()
	v.ShowStatus(presenter.Status{Kind: presenter.StatusError, Message: "Failed to sync messages"})
	assert.Equal(t, "[ERROR] Failed to sync messages\n", buf.String())
}

func TestView_Prompt(t *testing.T) {
	v, buf := newPlainView()
	v.ShowPrompt("alice")
	v.Info("background")
	// without a terminal the prompt line is terminated before async output
	assert.Equal(t, "alice> \nbackground\nalice> ", buf.String())

	buf.Reset()
	v.PromptDone()
	v.Info("after")
	assert.Equal(t, "after\n", buf.String())
}

func TestView_Users(t *testing.T) {
	v, buf := newPlainView()
	v.Users([]string{"alice", "bob"}, "bob")
	assert.Contains(t, buf.String(), "• alice\n")
	assert.Contains(t, buf.String(), "• bob (you)\n")
}

func TestView_Help(t *testing.T) {
	v, buf := newPlainView()
	v.Help()
	for _, c := range []string{"/refresh", "/clear", "/name <name>", "/users", "/help", "/quit or /exit"} {
		assert.Contains(t, buf.String(), c)
	}
}
