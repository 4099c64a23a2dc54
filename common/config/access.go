package config

import (
	"io"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

var Path = "nzb.yaml"

var instance *MainConfig
var singletonLock = &sync.Once{}
var instanceLock = &sync.RWMutex{}

func reloadConfig() (*MainConfig, error) {
	c := NewDefaultMainConfig()

	info, err := os.Stat(Path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		logrus.Debug("No config file at ", Path, " - using defaults")
		applyEnv(&c)
		return &c, nil
	}

	pathsOrdered := make([]string, 0)
	if info.IsDir() {
		logrus.Info("Config is a directory - loading all files over top of each other")

		files, err := os.ReadDir(Path)
		if err != nil {
			return nil, err
		}

		for _, f := range files {
			pathsOrdered = append(pathsOrdered, path.Join(Path, f.Name()))
		}

		sort.Strings(pathsOrdered)
	} else {
		pathsOrdered = append(pathsOrdered, Path)
	}

	for _, p := range pathsOrdered {
		logrus.Debug("Loading config file: ", p)
		if err = loadFile(p, &c); err != nil {
			return nil, err
		}
	}

	applyEnv(&c)
	return &c, nil
}

func loadFile(p string, c *MainConfig) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()

	buffer, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(buffer, c)
}

func Get() *MainConfig {
	if instance == nil {
		singletonLock.Do(func() {
			c, err := reloadConfig()
			if err != nil {
				logrus.Fatal(err)
			}
			instanceLock.Lock()
			instance = c
			instanceLock.Unlock()
		})
	}
	instanceLock.RLock()
	defer instanceLock.RUnlock()
	return instance
}

// Set replaces the active configuration. Commands use it after applying
// their flags so that packages reading Get() see the final values.
func Set(c *MainConfig) {
	singletonLock.Do(func() {})
	instanceLock.Lock()
	instance = c
	instanceLock.Unlock()
}

// Load reads the configuration at Path without making it active.
func Load() (*MainConfig, error) {
	return reloadConfig()
}
