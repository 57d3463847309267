package config

// Config holds formfield configuration.
// Stored at: $HOME/.formfield/config.yaml
type Config struct {
	Analyzer  AnalyzerCfg  `mapstructure:"analyzer" yaml:"analyzer"`
	Server    ServerCfg    `mapstructure:"server" yaml:"server"`
	Detection DetectionCfg `mapstructure:"detection" yaml:"detection"`
	Store     StoreCfg     `mapstructure:"store" yaml:"store"`
}

// AnalyzerCfg configures the upstream form-analysis service.
type AnalyzerCfg struct {
	BaseURL         string `mapstructure:"base_url" yaml:"base_url"`                 // e.g. http://localhost:9000
	DefaultLanguage string `mapstructure:"default_language" yaml:"default_language"` // Output language when a request omits one
	HealthTimeout   int    `mapstructure:"health_timeout" yaml:"health_timeout"`     // Seconds to wait for the analyzer at startup
	PointSpace      bool   `mapstructure:"point_space" yaml:"point_space"`           // Analyzer reports PDF-point boxes (bottom-left origin)
}

// ServerCfg holds HTTP bind settings.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// DetectionCfg tunes heuristic field discovery.
type DetectionCfg struct {
	// RenderScale applied before sampling page pixels (1.0 = native).
	RenderScale float64 `mapstructure:"render_scale" yaml:"render_scale"`
}

// StoreCfg configures the durable result store.
type StoreCfg struct {
	// Path to the SQLite database file. Empty means
	// {home}/results.db.
	Path string `mapstructure:"path" yaml:"path"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analyzer: AnalyzerCfg{
			BaseURL:         "http://localhost:9000",
			DefaultLanguage: "en",
			HealthTimeout:   30,
		},
		Server: ServerCfg{
			Host: "localhost",
			Port: "8585",
		},
		Detection: DetectionCfg{
			RenderScale: 1.0,
		},
		Store: StoreCfg{},
	}
}

// ListenAddr returns the host:port the server binds.
func (c *Config) ListenAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}
