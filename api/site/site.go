// Package site serves the files of one NZB over HTTP.
package site

import (
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/t2bot/nzbkit/common/config"
	"github.com/t2bot/nzbkit/manifest"
	"github.com/t2bot/nzbkit/nntp"
	"github.com/t2bot/nzbkit/templating"
)

type Site struct {
	Fs       afero.Fs
	Path     string
	Template string // empty for the built-in index page
	Pool     *nntp.ConnPool

	current atomic.Pointer[manifest.Manifest]
}

// New loads the manifest at p and returns a Site serving it.
func New(fs afero.Fs, p string, template string, pool *nntp.ConnPool) (*Site, error) {
	s := &Site{
		Fs:       fs,
		Path:     p,
		Template: template,
		Pool:     pool,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Manifest is the manifest as of the last successful load.
func (s *Site) Manifest() *manifest.Manifest {
	return s.current.Load()
}

func (s *Site) Reload() error {
	m, err := manifest.Open(s.Fs, s.Path)
	if err != nil {
		return err
	}
	s.current.Store(m)
	return nil
}

// Watch reloads the manifest and template whenever their files change.
// A manifest that fails to parse leaves the previous one in place.
func (s *Site) Watch() ([]*fsnotify.Watcher, error) {
	watchers := make([]*fsnotify.Watcher, 0)
	if s.Path != "-" {
		w, err := config.WatchFile(s.Path, func() {
			if err := s.Reload(); err != nil {
				logrus.Error("Error reloading NZB - keeping the previous one: ", err)
				return
			}
			logrus.WithField("files", len(s.Manifest().Files)).Info("Reloaded ", s.Path)
		})
		if err != nil {
			return nil, err
		}
		watchers = append(watchers, w)
	}
	if s.Template != "" {
		w, err := config.WatchFile(s.Template, func() {
			logrus.Info("Template changed - reloading ", s.Template)
			templating.Forget(s.Template)
		})
		if err != nil {
			for _, x := range watchers {
				_ = x.Close()
			}
			return nil, err
		}
		watchers = append(watchers, w)
	}
	return watchers, nil
}
