//go:generate mockgen -destination mock_chatlog/mock_chatlog.go github.com/anyproto/gitchat/chatlog LogStore
package chatlog

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anyproto/gitchat/app"
	"github.com/anyproto/gitchat/app/logger"
	"github.com/anyproto/gitchat/config"
)

const CName = "chatlog"

var log = logger.NewNamed(CName)

// ErrIO marks failures of the local storage
var ErrIO = errors.New("chat log io error")

type LogStore interface {
	app.Component
	// Read returns everything currently materialized locally, a missing file is an empty Log
	Read() (Log, error)
	// Append durably appends a new record stamped with the current time
	Append(author, text string) (Record, error)
	Path() string
}

type configGetter interface {
	GetRepo() config.Repo
}

func New() LogStore {
	return &logStore{now: time.Now}
}

// NewWithPath creates a store bound to path, the config component is not consulted
func NewWithPath(path string) LogStore {
	return &logStore{path: path, now: time.Now}
}

type logStore struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

func (s *logStore) Init(a *app.App) (err error) {
	if s.path == "" {
		s.path = a.MustComponent(config.CName).(configGetter).GetRepo().ChatFilePath()
	}
	return nil
}

func (s *logStore) Name() (name string) {
	return CName
}

func (s *logStore) Path() string {
	return s.path
}

func (s *logStore) Read() (Log, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Log{}, nil
		}
		return Log{}, fmt.Errorf("%w: read %s: %w", ErrIO, s.path, err)
	}
	return ParseLog(data), nil
}

func (s *logStore) Append(author, text string) (rec Record, err error) {
	rec = Record{
		Timestamp: s.now().UTC().Truncate(time.Second),
		Author:    author,
		Text:      text,
	}
	if err = rec.Validate(); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err = s.appendLine(FormatRecord(rec)); err != nil {
		log.Warn("append failed", zap.String("path", s.path), zap.Error(err))
		return Record{}, fmt.Errorf("%w: append %s: %w", ErrIO, s.path, err)
	}
	return rec, nil
}

func (s *logStore) appendLine(line string) (err error) {
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	// a hand edited file may lack the final line break
	needBreak, err := missingTrailingBreak(f)
	if err != nil {
		return err
	}
	buf := make([]byte, 0, len(line)+2)
	if needBreak {
		buf = append(buf, '\n')
	}
	buf = append(buf, line...)
	buf = append(buf, '\n')
	if _, err = f.Write(buf); err != nil {
		return err
	}
	return f.Sync()
}

func missingTrailingBreak(f *os.File) (bool, error) {
	st, err := f.Stat()
	if err != nil {
		return false, err
	}
	if st.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err = f.ReadAt(last, st.Size()-1); err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return last[0] != '\n', nil
}
