package config

import (
	"net"
	"strconv"
	"time"
)

type GeneralConfig struct {
	LogDirectory string `yaml:"logDirectory"`
	LogColors    bool   `yaml:"logColors"`
	JsonLogs     bool   `yaml:"jsonLogs"`
	LogLevel     string `yaml:"logLevel"`
}

// ServerConfig describes one NNTP server and how hard we try to talk to it.
type ServerConfig struct {
	Hostname         string `yaml:"hostname"`
	Port             int    `yaml:"port"`
	SSL              bool   `yaml:"ssl"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	Connections      int    `yaml:"connections"`
	ConnectRetries   int    `yaml:"connectRetries"`
	ReconnectDelayMs int    `yaml:"reconnectDelayMs"`
	RequestRetries   int    `yaml:"requestRetries"`
	PostRetryDelayMs int    `yaml:"postRetryDelayMs"`
	JoinGroup        bool   `yaml:"joinGroup"`
	BackoffAt        int    `yaml:"backoffAt"`
	TimeoutSeconds   int    `yaml:"timeoutSeconds"`
}

func (s ServerConfig) Address() string {
	port := s.Port
	if port <= 0 {
		if s.SSL {
			port = 563
		} else {
			port = 119
		}
	}
	return net.JoinHostPort(s.Hostname, strconv.Itoa(port))
}

func (s ServerConfig) ReconnectDelay() time.Duration {
	return time.Duration(s.ReconnectDelayMs) * time.Millisecond
}

func (s ServerConfig) PostRetryDelay() time.Duration {
	return time.Duration(s.PostRetryDelayMs) * time.Millisecond
}

func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

type MirrorConfig struct {
	Poster    string `yaml:"poster"`
	Groups    string `yaml:"groups"`
	Date      string `yaml:"date"`
	Subject   string `yaml:"subject"`
	MessageId string `yaml:"messageId"`
	Comment   string `yaml:"comment"`
	Comment2  string `yaml:"comment2"`
}

type ServeConfig struct {
	BindAddress      string `yaml:"bindAddress"`
	Port             int    `yaml:"port"`
	Template         string `yaml:"template"`
	Verbose          bool   `yaml:"verbose"`
	TrustAnyForward  bool   `yaml:"trustAnyForwardedAddress"`
	UseForwardedHost bool   `yaml:"useForwardedHost"`
}

type DownloadsConfig struct {
	MissingCacheMinutes int `yaml:"missingCacheMinutes"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Enabled           bool    `yaml:"enabled"`
	BurstCount        int     `yaml:"burst"`
}

type MetricsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BindAddress string `yaml:"bindAddress"`
	Port        int    `yaml:"port"`
}

type RedisShardConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"addr"`
}

type RedisConfig struct {
	Enabled           bool               `yaml:"enabled"`
	Shards            []RedisShardConfig `yaml:"shards,flow"`
	DbNum             int                `yaml:"databaseNumber"`
	ExpirationMinutes int                `yaml:"expirationMinutes"`
}

type S3Config struct {
	Endpoint     string `yaml:"endpoint"`
	AccessKeyId  string `yaml:"accessKeyId"`
	AccessSecret string `yaml:"accessSecret"`
	Region       string `yaml:"region"`
	Ssl          bool   `yaml:"ssl"`
	StorageClass string `yaml:"storageClass"`
}

type SentryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Dsn         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
	Debug       bool   `yaml:"debug"`
}
