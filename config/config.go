package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del torneo.
type Config struct {
	Tournament TournamentConfig `yaml:"tournament"`
	Feed       FeedConfig       `yaml:"feed"`
	Universe   UniverseConfig   `yaml:"universe"`
	API        APIConfig        `yaml:"api"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

// TournamentConfig controla el run del torneo y las estrategias.
type TournamentConfig struct {
	DurationMinutes       int     `yaml:"duration_minutes"` // 0 = correr hasta Ctrl+C
	StatusIntervalSeconds int     `yaml:"status_interval_seconds"`
	InitialCash           float64 `yaml:"initial_cash"`
	OrderSizeUSDC         float64 `yaml:"order_size_usdc"`
	MomentumThreshold     float64 `yaml:"momentum_threshold"`
}

// FeedConfig controla las dos cadencias del pipeline de datos.
type FeedConfig struct {
	FastIntervalSeconds int   `yaml:"fast_interval_seconds"` // tick de precios
	SlowIntervalSeconds int   `yaml:"slow_interval_seconds"` // refresh del universo
	MaxMarketsPerTick   int   `yaml:"max_markets_per_tick"`
	MaxRefreshAttempts  int   `yaml:"max_refresh_attempts"`
	CandleTimeframes    []int `yaml:"candle_timeframes"` // buckets de velas, en minutos
}

// UniverseConfig controla el circuit breaker de staleness.
type UniverseConfig struct {
	StaleThreshold       int `yaml:"stale_threshold"` // fallos consecutivos antes de marcar STALE
	StaleCooldownSeconds int `yaml:"stale_cooldown_seconds"`
}

// APIConfig contiene los base URLs de las APIs.
type APIConfig struct {
	CLOBBase  string `yaml:"clob_base"`
	GammaBase string `yaml:"gamma_base"`
}

// StorageConfig controla dónde se persisten los resultados.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Default devuelve una configuración con todos los defaults aplicados,
// útil cuando no hay archivo YAML (modo demo).
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// RunDuration devuelve la duración del torneo como time.Duration (0 = sin límite).
func (c *Config) RunDuration() time.Duration {
	return time.Duration(c.Tournament.DurationMinutes) * time.Minute
}

// StatusInterval devuelve el intervalo de status como time.Duration.
func (c *Config) StatusInterval() time.Duration {
	return time.Duration(c.Tournament.StatusIntervalSeconds) * time.Second
}

// FastInterval devuelve la cadencia del tick de precios.
func (c *Config) FastInterval() time.Duration {
	return time.Duration(c.Feed.FastIntervalSeconds) * time.Second
}

// SlowInterval devuelve la cadencia del refresh de universo.
func (c *Config) SlowInterval() time.Duration {
	return time.Duration(c.Feed.SlowIntervalSeconds) * time.Second
}

// StaleCooldown devuelve el cooldown de instrumentos STALE.
func (c *Config) StaleCooldown() time.Duration {
	return time.Duration(c.Universe.StaleCooldownSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Tournament.StatusIntervalSeconds <= 0 {
		cfg.Tournament.StatusIntervalSeconds = 30
	}
	if cfg.Tournament.InitialCash <= 0 {
		cfg.Tournament.InitialCash = 10000
	}
	if cfg.Tournament.OrderSizeUSDC <= 0 {
		cfg.Tournament.OrderSizeUSDC = 10
	}
	if cfg.Tournament.MomentumThreshold <= 0 {
		cfg.Tournament.MomentumThreshold = 0.55
	}
	if cfg.Feed.FastIntervalSeconds <= 0 {
		cfg.Feed.FastIntervalSeconds = 5
	}
	if cfg.Feed.SlowIntervalSeconds <= 0 {
		cfg.Feed.SlowIntervalSeconds = 60
	}
	if cfg.Feed.MaxMarketsPerTick <= 0 {
		cfg.Feed.MaxMarketsPerTick = 50
	}
	if cfg.Feed.MaxRefreshAttempts <= 0 {
		cfg.Feed.MaxRefreshAttempts = 3
	}
	if len(cfg.Feed.CandleTimeframes) == 0 {
		cfg.Feed.CandleTimeframes = []int{15, 60, 240, 1440}
	}
	if cfg.Universe.StaleThreshold <= 0 {
		cfg.Universe.StaleThreshold = 3
	}
	if cfg.Universe.StaleCooldownSeconds <= 0 {
		cfg.Universe.StaleCooldownSeconds = 120
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "tournament.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
