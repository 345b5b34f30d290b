package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/anyproto/gitchat/app"
	"github.com/anyproto/gitchat/app/logger"
)

const CName = "config"

var log = logger.NewNamed(CName)

// NewFromFile reads the yaml config at path on top of the defaults
func NewFromFile(path string) (c *Config, err error) {
	c = Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("can't parse config %s: %w", path, err)
	}
	return
}

// Load is like NewFromFile but a missing file yields the defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	c, err := NewFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return c, err
}

func Default() *Config {
	profilePath := "profile.yml"
	if dir, err := os.UserConfigDir(); err == nil {
		profilePath = filepath.Join(dir, "gitchat", "profile.yml")
	}
	return &Config{
		Log: logger.Config{
			DefaultLevel:  "info",
			Format:        logger.PlaintextOutput,
			DisableStdErr: true,
		},
		Repo: Repo{
			Path:           ".",
			ChatFile:       "chat.txt",
			GitBinary:      "git",
			UnionMerge:     true,
			CommandTimeout: 30 * time.Second,
		},
		Sync: Sync{
			PeriodSeconds:  10,
			TimeoutSeconds: 60,
		},
		Profile: Profile{
			Path: profilePath,
		},
	}
}

type Config struct {
	Log     logger.Config `yaml:"log"`
	Repo    Repo          `yaml:"repo"`
	Sync    Sync          `yaml:"sync"`
	Profile Profile       `yaml:"profile"`
	Metric  Metric        `yaml:"metric"`
}

type Repo struct {
	Path           string        `yaml:"path"`
	ChatFile       string        `yaml:"chatFile"`
	GitBinary      string        `yaml:"gitBinary"`
	UnionMerge     bool          `yaml:"unionMerge"`
	CommandTimeout time.Duration `yaml:"commandTimeout"`
}

// ChatFilePath returns the chat file location inside the working tree
func (r Repo) ChatFilePath() string {
	if filepath.IsAbs(r.ChatFile) {
		return r.ChatFile
	}
	return filepath.Join(r.Path, r.ChatFile)
}

type Sync struct {
	PeriodSeconds  int `yaml:"periodSeconds"`
	TimeoutSeconds int `yaml:"timeoutSeconds"`
}

func (s Sync) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

type Profile struct {
	Path string `yaml:"path"`
}

type Metric struct {
	Addr string `yaml:"addr"`
}

func (c *Config) Init(a *app.App) (err error) {
	log.Debug("config loaded",
		zap.String("repo", c.Repo.Path),
		zap.String("chatFile", c.Repo.ChatFile),
		zap.Int("syncPeriod", c.Sync.PeriodSeconds),
	)
	return
}

func (c *Config) Name() (name string) {
	return CName
}

func (c *Config) GetLog() logger.Config {
	return c.Log
}

func (c *Config) GetRepo() Repo {
	return c.Repo
}

func (c *Config) GetSync() Sync {
	return c.Sync
}

func (c *Config) GetProfile() Profile {
	return c.Profile
}

func (c *Config) GetMetric() Metric {
	return c.Metric
}
