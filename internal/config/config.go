package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug    bool     `yaml:"debug" env:"CINEFLIX_DEBUG"`
	Limiter  Limiter  `yaml:"limiter"`
	Server   Server   `yaml:"server"`
	CORS     CORS     `yaml:"cors"`
	Store    Store    `yaml:"store"`
	Assets   Assets   `yaml:"assets"`
	SMTP     SMTP     `yaml:"smtp"`
	Player   Player   `yaml:"player"`
	Checkout Checkout `yaml:"checkout"`
	Tasks    Tasks    `yaml:"tasks"`
}

type Limiter struct {
	Enabled bool    `yaml:"enabled"`
	Rps     float64 `yaml:"rps" env-default:"20"`
	Burst   int     `yaml:"burst" env-default:"5"`
}

type Server struct {
	Port string `yaml:"port" env:"CINEFLIX_PORT" env-default:"8000"`
	Host string `yaml:"host" env-default:"localhost"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env-default:"*"`
}

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Store selects the backend holding the record store keys.
type Store struct {
	Driver          string        `yaml:"driver" env:"CINEFLIX_STORE_DRIVER" env-default:"memory"`
	Path            string        `yaml:"path" env:"CINEFLIX_STORE_PATH" env-default:"cineflix.db"`
	Dsn             string        `yaml:"dsn" env:"CINEFLIX_STORE_DSN"`
	Database        string        `yaml:"database" env-default:"cineflix"`
	Collection      string        `yaml:"collection" env-default:"records"`
	MaxConns        int           `yaml:"max_conns" env-default:"25"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env-default:"15m"`
	ConnTimeout     time.Duration `yaml:"conn_timeout" env-default:"5s"`
	WriteRetries    int           `yaml:"write_retries" env-default:"3"`
	Seed            bool          `yaml:"seed" env-default:"true"`
}

type Assets struct {
	Bucket         string `yaml:"bucket" env:"CINEFLIX_ASSETS_BUCKET"`
	Region         string `yaml:"region" env-default:"us-east-1"`
	Endpoint       string `yaml:"endpoint" env:"CINEFLIX_ASSETS_ENDPOINT"`
	PublicBaseURL  string `yaml:"public_base_url"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" env-default:"524288000"`
}

type SMTP struct {
	Host         string        `yaml:"host" env:"CINEFLIX_SMTP_HOST"`
	Port         int           `yaml:"port" env-default:"25"`
	Username     string        `yaml:"username" env:"CINEFLIX_SMTP_USERNAME"`
	Password     string        `yaml:"password" env:"CINEFLIX_SMTP_PASSWORD"`
	Sender       string        `yaml:"sender" env-default:"CineFlix <no-reply@cineflix.local>"`
	Timeout      time.Duration `yaml:"timeout" env-default:"5s"`
	RetriesCount int           `yaml:"retries_count" env-default:"3"`
}

type Player struct {
	ResumeThreshold time.Duration `yaml:"resume_threshold" env-default:"30s"`
	SaveInterval    time.Duration `yaml:"save_interval" env-default:"10s"`
	PerUserProgress bool          `yaml:"per_user_progress"`
}

type Checkout struct {
	YearlyDiscount  float64       `yaml:"yearly_discount" env-default:"0.2"`
	ProcessingDelay time.Duration `yaml:"processing_delay" env-default:"2s"`
	WorkflowTTL     time.Duration `yaml:"workflow_ttl" env-default:"30m"`
}

type Tasks struct {
	Workers   int `yaml:"workers" env-default:"3"`
	QueueSize int `yaml:"queue_size" env-default:"100"`
}

func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the YAML file at configPath, letting environment variables
// (optionally sourced from a .env file in the working directory) override it.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	var cfg Config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file %s not found", configPath)
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}
	switch cfg.Store.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres, DriverMongo:
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	return &cfg, nil
}
