package main

import (
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/t2bot/nzbkit/api"
	"github.com/t2bot/nzbkit/api/site"
	"github.com/t2bot/nzbkit/common/config"
	"github.com/t2bot/nzbkit/nntp"
)

const serveUsage = "serve [flags] <input>"

func splitAddress(address string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return "", 0, errors.Wrapf(err, "invalid address %q", address)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, errors.Wrapf(err, "invalid port in %q", address)
	}
	if host == "" {
		host = "0.0.0.0"
	}
	return host, port, nil
}

func runServe(args []string) error {
	fset := newFlagSet("serve", serveUsage)
	server := addServerFlags(fset)
	address := fset.String("address", "127.0.0.1:8000", "IP:port or :port to listen on")
	template := fset.StringP("template", "t", "", "Path to an HTML template for the index page (defaults to the built-in one)")
	verbose := fset.BoolP("verbose", "v", false, "Log every request")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() < 1 {
		return missingInput(fset, serveUsage)
	}

	host, port, err := splitAddress(*address)
	if err != nil {
		return err
	}
	overlay := func(c *config.MainConfig) {
		server.apply(&c.Source)
		if fset.Changed("address") {
			c.Serve.BindAddress = host
			c.Serve.Port = port
		}
		if fset.Changed("template") {
			c.Serve.Template = *template
		}
		if fset.Changed("verbose") {
			c.Serve.Verbose = *verbose
		}
	}
	s, err := setup(fset, overlay, false)
	if err != nil {
		return err
	}
	defer s.Close()

	logrus.Info("Starting config watcher...")
	watcher := config.Watch()
	if watcher != nil {
		defer func(watcher *fsnotify.Watcher) {
			_ = watcher.Close()
		}(watcher)
	}
	setupReloads(fset, overlay)

	cfg := s.Ctx.Config
	conns := nntp.NewConnPool(dialer(cfg.Source, s.Ctx.Log), cfg.Source.Connections)
	defer conns.Close()

	st, err := site.New(fsys, fset.Arg(0), cfg.Serve.Template, conns)
	if err != nil {
		return errors.Wrap(err, fset.Arg(0))
	}
	logrus.WithField("files", len(st.Manifest().Files)).Info("Loaded ", fset.Arg(0))

	watchers, err := st.Watch()
	if err != nil {
		logrus.Warn("Not watching the NZB for changes: ", err)
	}
	defer func() {
		for _, w := range watchers {
			_ = w.Close()
		}
	}()

	logrus.Info("Starting web server...")
	web := api.Init(st)

	// Set up a listener for SIGINT
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		logrus.Warn("Stop signal received")
		logrus.Info("Stopping web server...")
		api.Stop()
	}()

	// Wait for the web server to exit nicely
	web.Wait()
	signal.Stop(stop)

	logrus.Info("Goodbye!")
	return nil
}
