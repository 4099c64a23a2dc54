package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	EnvHostname    = "NNTP_HOSTNAME"
	EnvPort        = "NNTP_PORT"
	EnvSSL         = "NNTP_SSL"
	EnvUser        = "NNTP_USER"
	EnvPass        = "NNTP_PASS"
	EnvConnections = "NNTP_CONNECTIONS"
	EnvPoster      = "NNTP_POSTER"
)

var DotEnvPath = ".env"

// applyEnv overlays NNTP_* variables (optionally sourced from a .env file)
// onto the source server and mirror defaults.
func applyEnv(c *MainConfig) {
	if _, err := os.Stat(DotEnvPath); err == nil {
		if err = godotenv.Load(DotEnvPath); err != nil {
			logrus.Warn("Failed to load ", DotEnvPath, ": ", err)
		}
	}

	if v := os.Getenv(EnvHostname); v != "" {
		c.Source.Hostname = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Source.Port = port
		} else {
			logrus.Warnf("Ignoring %s=%q: %v", EnvPort, v, err)
		}
	}
	if v := os.Getenv(EnvSSL); v != "" {
		c.Source.SSL = v == "true"
	}
	if v := os.Getenv(EnvUser); v != "" {
		c.Source.Username = v
	}
	if v := os.Getenv(EnvPass); v != "" {
		c.Source.Password = v
	}
	if v := os.Getenv(EnvConnections); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Source.Connections = n
		}
	}
	if v := os.Getenv(EnvPoster); v != "" {
		c.Mirror.Poster = v
	}
}
