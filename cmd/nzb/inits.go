package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/t2bot/nzbkit/common/config"
	"github.com/t2bot/nzbkit/common/logging"
	"github.com/t2bot/nzbkit/common/rcontext"
	"github.com/t2bot/nzbkit/common/version"
	"github.com/t2bot/nzbkit/errcache"
	"github.com/t2bot/nzbkit/metrics"
	"github.com/t2bot/nzbkit/redislib"
)

type session struct {
	Ctx    rcontext.RequestContext
	cancel context.CancelFunc
}

// Close stops whatever setup started. Safe to defer right after setup.
func (s *session) Close() {
	s.cancel()
	metrics.Stop()
	redislib.Stop()
	sentry.Flush(2 * time.Second)
}

// Overlay applies command flags on top of the loaded configuration.
type Overlay func(c *config.MainConfig)

func loadConfig(fset *pflag.FlagSet, overlay Overlay) (*config.MainConfig, error) {
	config.Path, _ = fset.GetString("config")
	c, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading config")
	}
	if fset.Changed("log-level") {
		c.General.LogLevel, _ = fset.GetString("log-level")
	}
	if overlay != nil {
		overlay(c)
	}
	return c, nil
}

// setup loads the configuration and starts the shared machinery every
// command needs. With interruptible, SIGINT and SIGTERM cancel the
// session's context.
func setup(fset *pflag.FlagSet, overlay Overlay, interruptible bool) (*session, error) {
	c, err := loadConfig(fset, overlay)
	if err != nil {
		return nil, err
	}
	config.Set(c)

	err = logging.Setup(
		c.General.LogDirectory,
		c.General.LogColors,
		c.General.JsonLogs,
		c.General.LogLevel,
	)
	if err != nil {
		return nil, errors.Wrap(err, "setting up logging")
	}

	if c.Sentry.Enabled {
		logrus.Info("Setting up Sentry for debugging...")
		version.SetDefaults()
		err = sentry.Init(sentry.ClientOptions{
			Dsn:         c.Sentry.Dsn,
			Environment: c.Sentry.Environment,
			Debug:       c.Sentry.Debug,
			Release:     fmt.Sprintf("%s-%s", version.Version, version.GitCommit),
		})
		if err != nil {
			return nil, errors.Wrap(err, "setting up sentry")
		}
	}

	errcache.AdjustSize()
	metrics.Init()

	var ctx context.Context
	var cancel context.CancelFunc
	if interruptible {
		ctx, cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	return &session{
		Ctx:    rcontext.Background(ctx, logrus.WithField("command", fset.Name())),
		cancel: cancel,
	}, nil
}

// setupReloads keeps long-running commands in step with the config file.
// Flags given on the command line are re-applied over every reload.
func setupReloads(fset *pflag.FlagSet, overlay Overlay) {
	config.OnChange(func(before *config.MainConfig, after *config.MainConfig) {
		c := *after
		if fset.Changed("log-level") {
			c.General.LogLevel, _ = fset.GetString("log-level")
		}
		if overlay != nil {
			overlay(&c)
		}
		config.Set(&c)

		if before.General != c.General {
			logrus.Info("Reconfiguring logging")
			if err := logging.Setup(c.General.LogDirectory, c.General.LogColors, c.General.JsonLogs, c.General.LogLevel); err != nil {
				logrus.Error("Error reconfiguring logging: ", err)
			}
		}
		if before.Metrics != c.Metrics {
			logrus.Info("Restarting metrics listener")
			metrics.Reload()
		}
		if before.Downloads != c.Downloads {
			logrus.Info("Resizing error caches")
			errcache.AdjustSize()
		}
		if redisChanged(before.Redis, c.Redis) {
			logrus.Info("Reconnecting to redis")
			redislib.Reconnect()
		}
	})
}

func redisChanged(a config.RedisConfig, b config.RedisConfig) bool {
	if a.Enabled != b.Enabled || a.DbNum != b.DbNum || len(a.Shards) != len(b.Shards) {
		return true
	}
	for i := range a.Shards {
		if a.Shards[i] != b.Shards[i] {
			return true
		}
	}
	return false
}
