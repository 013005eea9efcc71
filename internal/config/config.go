// Package config loads seoscan settings from config.yaml, .env and the
// environment, in that order of precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yaml"

type Config struct {
	Server struct {
		Port           int           `yaml:"port"`
		AllowedOrigins []string      `yaml:"allowedOrigins"`
		SecureCookie   bool          `yaml:"secureCookie"`
		ReadTimeout    time.Duration `yaml:"readTimeout"`
		WriteTimeout   time.Duration `yaml:"writeTimeout"`
		RateLimitRPS   float64       `yaml:"rateLimitRps"`
		RateLimitBurst int           `yaml:"rateLimitBurst"`
	} `yaml:"server"`

	Database struct {
		Driver      string `yaml:"driver"`
		Host        string `yaml:"host"`
		Port        int    `yaml:"port"`
		User        string `yaml:"user"`
		Password    string `yaml:"password"`
		Name        string `yaml:"name"`
		SSLMode     string `yaml:"sslMode"`
		AutoMigrate bool   `yaml:"autoMigrate"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool          `yaml:"enabled"`
		Endpoint   string        `yaml:"endpoint"`
		AccessKey  string        `yaml:"accessKey"`
		SecretKey  string        `yaml:"secretKey"`
		BucketName string        `yaml:"bucketName"`
		Region     string        `yaml:"region"`
		UseSSL     bool          `yaml:"useSSL"`
		PresignTTL time.Duration `yaml:"presignTTL"`
	} `yaml:"minio"`

	PageSpeed struct {
		APIKey   string        `yaml:"apiKey"`
		Endpoint string        `yaml:"endpoint"`
		Strategy string        `yaml:"strategy"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"pagespeed"`

	AI struct {
		APIKey   string        `yaml:"apiKey"`
		BaseURL  string        `yaml:"baseURL"`
		Model    string        `yaml:"model"`
		Timeout  time.Duration `yaml:"timeout"`
		JSONMode bool          `yaml:"jsonMode"`
	} `yaml:"ai"`

	Auth struct {
		JWTSecret  string        `yaml:"jwtSecret"`
		TokenTTL   time.Duration `yaml:"tokenTTL"`
		BcryptCost int           `yaml:"bcryptCost"`
	} `yaml:"auth"`

	Worker struct {
		Concurrency     int           `yaml:"concurrency"`
		AnalysisTimeout time.Duration `yaml:"analysisTimeout"`
		// StaleAfter is how long a PENDING/PROCESSING scan may sit untouched
		// before the sweeper fails it.
		StaleAfter    time.Duration `yaml:"staleAfter"`
		SweepSchedule string        `yaml:"sweepSchedule"`
	} `yaml:"worker"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// Load reads path (DefaultPath when empty), then .env, then environment
// overrides. A missing default file is fine; a missing explicit one is not.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	// .env boleh tidak ada
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.trim()
	return cfg, nil
}

// Defaults returns a config with every optional setting filled in.
func Defaults() *Config {
	var c Config
	c.Server.Port = 3001
	c.Server.AllowedOrigins = []string{"http://localhost:3000"}
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 15 * time.Second
	c.Server.RateLimitRPS = 5
	c.Server.RateLimitBurst = 20

	c.Database.Driver = "mysql"
	c.Database.Host = "localhost"
	c.Database.Port = 3306
	c.Database.User = "root"
	c.Database.Name = "seoscan"
	c.Database.SSLMode = "disable"
	c.Database.AutoMigrate = true

	c.Minio.BucketName = "seoscan"
	c.Minio.Region = "us-east-1"
	c.Minio.PresignTTL = 24 * time.Hour

	c.PageSpeed.Endpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"
	c.PageSpeed.Timeout = 60 * time.Second

	c.AI.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	c.AI.Model = "gemini-1.5-flash"
	c.AI.Timeout = 60 * time.Second

	c.Auth.TokenTTL = 60 * time.Minute

	c.Worker.Concurrency = 4
	c.Worker.AnalysisTimeout = 3 * time.Minute
	c.Worker.StaleAfter = 10 * time.Minute
	c.Worker.SweepSchedule = "@every 1m"

	c.Log.Level = "info"
	return &c
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("GOOGLE_API_KEY", &c.PageSpeed.APIKey)
	str("GEMINI_API_KEY", &c.AI.APIKey)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("DB_DRIVER", &c.Database.Driver)
	str("DB_HOST", &c.Database.Host)
	str("DB_USER", &c.Database.User)
	str("DB_PASSWORD", &c.Database.Password)
	str("DB_NAME", &c.Database.Name)
	str("LOG_LEVEL", &c.Log.Level)
	if err := num("PORT", &c.Server.Port); err != nil {
		return err
	}
	if err := num("DB_PORT", &c.Database.Port); err != nil {
		return err
	}
	if v, ok := lookup("CORS_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	return nil
}

func (c *Config) trim() {
	for _, p := range []*string{
		&c.PageSpeed.APIKey, &c.AI.APIKey, &c.Auth.JWTSecret,
		&c.Database.Driver, &c.Database.Host, &c.Database.User, &c.Database.Name,
		&c.Log.Level,
	} {
		*p = strings.TrimSpace(*p)
	}
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	origins := c.Server.AllowedOrigins[:0]
	for _, o := range c.Server.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.Server.AllowedOrigins = origins
}

// Validate fails on the first missing required setting, naming the
// environment variable that supplies it.
func (c *Config) Validate() error {
	required := []struct {
		env, val string
	}{
		{"GOOGLE_API_KEY", c.PageSpeed.APIKey},
		{"GEMINI_API_KEY", c.AI.APIKey},
		{"JWT_SECRET", c.Auth.JWTSecret},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return fmt.Errorf("config: %s is required", r.env)
		}
	}
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	if c.Worker.AnalysisTimeout > 0 && c.Worker.StaleAfter <= c.Worker.AnalysisTimeout {
		return fmt.Errorf("config: worker staleAfter (%s) must exceed analysisTimeout (%s)",
			c.Worker.StaleAfter, c.Worker.AnalysisTimeout)
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq keyword/value connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		quoteDSN(c.Database.Password),
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func quoteDSN(v string) string {
	if v == "" {
		return "''"
	}
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
