package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/anyproto/gitchat/app"
	"github.com/anyproto/gitchat/app/logger"
	"github.com/anyproto/gitchat/chatlog"
	"github.com/anyproto/gitchat/config"
	"github.com/anyproto/gitchat/console"
	"github.com/anyproto/gitchat/metric"
	"github.com/anyproto/gitchat/presenter/termview"
	"github.com/anyproto/gitchat/profile"
	"github.com/anyproto/gitchat/reconcile"
	"github.com/anyproto/gitchat/remotesync"
	"github.com/anyproto/gitchat/remotesync/gittransport"
)

var log = logger.NewNamed("main")

const logLevelEnv = "GITCHAT_LOG_LEVEL"

var (
	flagConfigFile string
	flagRepo       string
	flagName       string
	flagInterval   int
	flagVersion    bool
)

var rootCmd = &cobra.Command{
	Use:   "gitchat",
	Short: "Terminal chat synchronized through a git repository",
	Long: `gitchat appends messages to a text file in a git working tree and keeps it
in sync with the remote by pulling and pushing in the background.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagVersion {
			fmt.Println(app.VersionDescription())
			return nil
		}
		return run(cmd)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&flagConfigFile, "config", "c", "gitchat.yml", "path to config file, defaults are used when it doesn't exist")
	rootCmd.Flags().StringVar(&flagRepo, "repo", "", "git working tree holding the chat file")
	rootCmd.Flags().StringVar(&flagName, "name", "", "display name, stored in the profile")
	rootCmd.Flags().IntVar(&flagInterval, "interval", 0, "auto-sync period in seconds")
	rootCmd.Flags().BoolVarP(&flagVersion, "version", "v", false, "show version and exit")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command) (err error) {
	conf, err := config.Load(flagConfigFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("repo") {
		conf.Repo.Path = flagRepo
	}
	if cmd.Flags().Changed("interval") {
		conf.Sync.PeriodSeconds = flagInterval
	}
	if err = applyLogger(conf); err != nil {
		return err
	}

	prof := profile.NewWithPath(conf.Profile.Path)
	if flagName != "" {
		if err = prof.SetAuthorName(flagName); err != nil {
			return err
		}
	}

	a := new(app.App)
	a.Register(conf).Register(prof)
	cons := Bootstrap(a)

	ctx := context.Background()
	if err = a.Start(ctx); err != nil {
		return fmt.Errorf("can't start: %w", err)
	}
	log.Info("app started", zap.String("version", a.Version()), zap.String("repo", conf.Repo.Path))

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	select {
	case sig := <-exit:
		log.Info("received exit signal, stop app", zap.String("signal", fmt.Sprint(sig)))
		fmt.Println()
	case <-cons.Done():
		log.Info("console closed, stop app")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err = a.Close(ctx); err != nil {
		log.Error("close error", zap.Error(err))
	}
	return nil
}

// Bootstrap registers the chat components, config and profile must already be registered
func Bootstrap(a *app.App) console.Console {
	cons := console.New()
	a.Register(metric.New()).
		Register(chatlog.New()).
		Register(gittransport.New()).
		Register(remotesync.New()).
		Register(termview.New()).
		Register(cons).
		Register(reconcile.New())
	return cons
}

// applyLogger keeps the terminal clean, logs go to the .git directory of the working tree
func applyLogger(conf *config.Config) error {
	lc := conf.GetLog()
	if len(lc.AddOutputPaths) == 0 {
		gitDir := filepath.Join(conf.Repo.Path, ".git")
		if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
			lc.AddOutputPaths = []string{filepath.Join(gitDir, "gitchat.log")}
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if env := os.Getenv(logLevelEnv); env != "" {
		lc.Levels = append(logger.LevelsFromStr(env), lc.Levels...)
	}
	return lc.ApplyGlobal()
}
