// Package profile stores the display name of the local participant.
package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/anyproto/gitchat/app"
	"github.com/anyproto/gitchat/app/logger"
	"github.com/anyproto/gitchat/chatlog"
	"github.com/anyproto/gitchat/config"
)

const CName = "profile"

var log = logger.NewNamed(CName)

var ErrEmptyName = errors.New("display name can't be empty")

type Profile interface {
	app.Component
	// AuthorName returns an empty string until a name was set
	AuthorName() string
	SetAuthorName(name string) error
}

type configGetter interface {
	GetProfile() config.Profile
}

// the "username" key keeps files written by older clients readable
type profileFile struct {
	Username string `yaml:"username"`
}

func New() Profile {
	return &profile{}
}

func NewWithPath(path string) Profile {
	return &profile{path: path}
}

type profile struct {
	path string
	name string
	mu   sync.Mutex
}

func (p *profile) Init(a *app.App) (err error) {
	if p.path == "" {
		p.path = a.MustComponent(config.CName).(configGetter).GetProfile().Path
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	var pf profileFile
	if err = yaml.Unmarshal(data, &pf); err != nil {
		// a broken profile is recreated on the next SetAuthorName
		log.Warn("can't parse profile", zap.String("path", p.path), zap.Error(err))
		return nil
	}
	p.name = strings.TrimSpace(pf.Username)
	return nil
}

func (p *profile) Name() (name string) {
	return CName
}

func (p *profile) AuthorName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

func (p *profile) SetAuthorName(name string) (err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if err = chatlog.ValidateAuthor(name); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	data, err := yaml.Marshal(profileFile{Username: name})
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("can't create profile dir: %w", err)
	}
	if err = os.WriteFile(p.path, data, 0644); err != nil {
		return fmt.Errorf("can't write profile: %w", err)
	}
	p.name = name
	return nil
}
