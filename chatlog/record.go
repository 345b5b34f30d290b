package chatlog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the timestamp layout used inside the square brackets of a line
const TimeLayout = "2006-01-02 15:04:05"

const authorSep = ": "

var ErrInvalidRecord = errors.New("invalid record")

// Record is a single appended message. Position in the log is its only order.
type Record struct {
	Timestamp time.Time
	Author    string
	Text      string
}

// FormatRecord renders r as a single line without the trailing newline
func FormatRecord(r Record) string {
	return "[" + r.Timestamp.Format(TimeLayout) + "] " + r.Author + authorSep + r.Text
}

// Validate checks that r survives a format/parse round trip unchanged
func (r Record) Validate() error {
	if err := ValidateAuthor(r.Author); err != nil {
		return err
	}
	switch {
	case strings.ContainsAny(r.Text, "\r\n"):
		return fmt.Errorf("%w: line breaks are not allowed", ErrInvalidRecord)
	case r.Text == "":
		return fmt.Errorf("%w: empty text", ErrInvalidRecord)
	}
	return nil
}

// ValidateAuthor checks that author can be written into a line and parsed back
func ValidateAuthor(author string) error {
	switch {
	case strings.TrimSpace(author) == "":
		return fmt.Errorf("%w: empty author", ErrInvalidRecord)
	case strings.Contains(author, authorSep):
		return fmt.Errorf("%w: author %q contains %q", ErrInvalidRecord, author, strings.TrimSpace(authorSep))
	case strings.ContainsAny(author, "\r\n"):
		return fmt.Errorf("%w: line breaks are not allowed", ErrInvalidRecord)
	}
	return nil
}

type EntryKind int

const (
	EntryUnparsed EntryKind = iota
	EntryParsed
)

// Entry is one non-blank line of the log: either a parsed Record or a line kept verbatim
type Entry struct {
	Kind   EntryKind
	Record Record
	Raw    string
}

func (e Entry) IsParsed() bool {
	return e.Kind == EntryParsed
}

// Line returns the line exactly as it appears in the log
func (e Entry) Line() string {
	return e.Raw
}

// ParseLine parses `[YYYY-MM-DD HH:MM:SS] author: text`.
// Lines that do not follow the grammar come back as EntryUnparsed.
func ParseLine(line string) Entry {
	unparsed := Entry{Kind: EntryUnparsed, Raw: line}
	tsLen := len(TimeLayout)
	// "[" ts "]" " "
	if len(line) < tsLen+3 || line[0] != '[' || line[tsLen+1] != ']' || line[tsLen+2] != ' ' {
		return unparsed
	}
	ts, err := time.Parse(TimeLayout, line[1:tsLen+1])
	if err != nil {
		return unparsed
	}
	rest := line[tsLen+3:]
	sep := strings.Index(rest, authorSep)
	if sep <= 0 {
		return unparsed
	}
	author, text := rest[:sep], rest[sep+len(authorSep):]
	if text == "" {
		return unparsed
	}
	return Entry{
		Kind: EntryParsed,
		Record: Record{
			Timestamp: ts,
			Author:    author,
			Text:      text,
		},
		Raw: line,
	}
}
