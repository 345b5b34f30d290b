package chatlog

import (
	"bytes"
	"strings"
)

// Log is the materialized content of the chat file
type Log struct {
	Entries []Entry
	Raw     []byte
}

// ParseLog splits data into entries, skipping blank lines
func ParseLog(data []byte) Log {
	l := Log{Raw: data}
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		s := strings.TrimSuffix(string(line), "\r")
		if strings.TrimSpace(s) == "" {
			continue
		}
		l.Entries = append(l.Entries, ParseLine(s))
	}
	return l
}

func (l Log) Len() int {
	return len(l.Entries)
}

// Authors returns distinct authors of parsed entries in order of first appearance
func (l Log) Authors() []string {
	var (
		seen    = make(map[string]struct{})
		authors []string
	)
	for _, e := range l.Entries {
		if !e.IsParsed() {
			continue
		}
		if _, ok := seen[e.Record.Author]; ok {
			continue
		}
		seen[e.Record.Author] = struct{}{}
		authors = append(authors, e.Record.Author)
	}
	return authors
}

// PrefixSize returns the number of raw bytes occupied by the first n entries,
// including everything up to and including the line break of the n-th entry.
func (l Log) PrefixSize(n int) int {
	if n <= 0 {
		return 0
	}
	var (
		seen int
		pos  int
		data = l.Raw
	)
	for pos < len(data) {
		end := bytes.IndexByte(data[pos:], '\n')
		var line []byte
		next := len(data)
		if end >= 0 {
			line = data[pos : pos+end]
			next = pos + end + 1
		} else {
			line = data[pos:]
		}
		if len(bytes.TrimSpace(line)) != 0 {
			seen++
			if seen == n {
				return next
			}
		}
		pos = next
	}
	return len(data)
}
