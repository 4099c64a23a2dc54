package config

type MainConfig struct {
	General     GeneralConfig   `yaml:"general"`
	Source      ServerConfig    `yaml:"source"`
	Destination ServerConfig    `yaml:"destination"`
	Mirror      MirrorConfig    `yaml:"mirror"`
	Serve       ServeConfig     `yaml:"serve"`
	Downloads   DownloadsConfig `yaml:"downloads"`
	RateLimit   RateLimitConfig `yaml:"rateLimit"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Redis       RedisConfig     `yaml:"redis"`
	S3          S3Config        `yaml:"s3"`
	Sentry      SentryConfig    `yaml:"sentry"`
}

func NewDefaultServerConfig() ServerConfig {
	return ServerConfig{
		Hostname:         "localhost",
		Port:             119,
		SSL:              false,
		Connections:      3,
		ConnectRetries:   1,
		ReconnectDelayMs: 15000, // 15s
		RequestRetries:   5,
		PostRetryDelayMs: 0,
		JoinGroup:        false,
		BackoffAt:        10,
		TimeoutSeconds:   60,
	}
}

func NewDefaultMainConfig() MainConfig {
	return MainConfig{
		General: GeneralConfig{
			LogDirectory: "-",
			LogColors:    false,
			JsonLogs:     false,
			LogLevel:     "info",
		},
		Source:      NewDefaultServerConfig(),
		Destination: ServerConfig{}, // empty hostname: same as source
		Mirror: MirrorConfig{
			Poster: "poster@example.com",
		},
		Serve: ServeConfig{
			BindAddress:      "127.0.0.1",
			Port:             8000,
			Template:         "",
			Verbose:          false,
			TrustAnyForward:  false,
			UseForwardedHost: true,
		},
		Downloads: DownloadsConfig{
			MissingCacheMinutes: 15,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 5,
			BurstCount:        10,
		},
		Metrics: MetricsConfig{
			Enabled:     false,
			BindAddress: "localhost",
			Port:        9000,
		},
		Redis: RedisConfig{
			Enabled:           false,
			Shards:            []RedisShardConfig{},
			ExpirationMinutes: 15,
		},
		S3: S3Config{
			Region: "us-east-1",
			Ssl:    true,
		},
		Sentry: SentryConfig{
			Enabled:     false,
			Dsn:         "not supplied",
			Environment: "",
			Debug:       false,
		},
	}
}

// DestinationServer falls back to the source server when no destination
// hostname was configured, which is how a same-server repost works.
func (c *MainConfig) DestinationServer() ServerConfig {
	if c.Destination.Hostname == "" {
		return c.Source
	}
	d := c.Destination
	defaults := NewDefaultServerConfig()
	if d.Connections <= 0 {
		d.Connections = c.Source.Connections
	}
	if d.ConnectRetries <= 0 {
		d.ConnectRetries = defaults.ConnectRetries
	}
	if d.RequestRetries <= 0 {
		d.RequestRetries = defaults.RequestRetries
	}
	if d.BackoffAt <= 0 {
		d.BackoffAt = defaults.BackoffAt
	}
	if d.TimeoutSeconds <= 0 {
		d.TimeoutSeconds = defaults.TimeoutSeconds
	}
	return d
}
