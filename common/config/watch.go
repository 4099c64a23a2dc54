package config

import (
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

type ChangeFn func(before *MainConfig, after *MainConfig)

var changeFns = make([]ChangeFn, 0)

func OnChange(fn ChangeFn) {
	changeFns = append(changeFns, fn)
}

// WatchFile calls fn (debounced) whenever the file at p changes.
func WatchFile(p string, fn func()) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err = watcher.Add(p); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go func() {
		debounced := debounce.New(1 * time.Second)
		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				debounced(fn)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logrus.Error("error in file watcher:", err)
			}
		}
	}()

	return watcher, nil
}

// Watch reloads the configuration when its file changes. Returns nil when
// there is no config file to watch.
func Watch() *fsnotify.Watcher {
	watcher, err := WatchFile(Path, onFileChanged)
	if err != nil {
		logrus.Debug("Not watching config: ", err)
		return nil
	}
	return watcher
}

func onFileChanged() {
	logrus.Info("Config file change detected - reloading")
	configNow := Get()
	configNew, err := reloadConfig()
	if err != nil {
		logrus.Error("Error reloading configuration - ignoring")
		logrus.Error(err)
		return
	}

	logrus.Info("Applying reloaded config live")
	Set(configNew)

	for _, fn := range changeFns {
		fn(configNow, configNew)
	}
}
