package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	App struct {
		Name  string `yaml:"name"`
		Debug bool   `yaml:"debug"`
	} `yaml:"app"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	// URL wins over the host/port fields when set.
	Database struct {
		URL      string `yaml:"url"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	OpenAI struct {
		APIKey  string        `yaml:"apiKey"`
		Model   string        `yaml:"model"`
		BaseURL string        `yaml:"baseURL"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"openai"`

	CORS struct {
		Origins []string `yaml:"origins"`
	} `yaml:"cors"`

	Upload struct {
		MaxFileSize int64  `yaml:"maxFileSize"`
		Dir         string `yaml:"dir"`
	} `yaml:"upload"`

	Storage struct {
		Driver string `yaml:"driver"` // local | minio
	} `yaml:"storage"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Share struct {
		BaseURL string `yaml:"baseURL"`
	} `yaml:"share"`

	RateLimit struct {
		Capacity        int `yaml:"capacity"`
		RefillPerSecond int `yaml:"refillPerSecond"`
	} `yaml:"rateLimit"`
}

// Default returns the configuration used when no file or env is present.
func Default() *Config {
	var c Config
	c.App.Name = "Fantasy Football Draft Analyzer"
	c.Server.Port = 8000
	c.Database.Host = "localhost"
	c.Database.Port = 3306
	c.Database.User = "root"
	c.Database.Name = "fantasy_draft"
	c.OpenAI.Model = "gpt-4"
	c.OpenAI.Timeout = 120 * time.Second
	c.CORS.Origins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	c.Upload.MaxFileSize = 10 * 1024 * 1024
	c.Upload.Dir = "uploads"
	c.Storage.Driver = "local"
	c.Minio.BucketName = "drafts"
	c.Minio.Region = "us-east-1"
	c.RateLimit.Capacity = 10
	c.RateLimit.RefillPerSecond = 1
	return &c
}

// Load baca file config lalu override dari environment.
// File yang tidak ada bukan error; default yang dipakai.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.App.Name, "APP_NAME")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.Model, "OPENAI_MODEL")
	setString(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.Upload.Dir, "UPLOAD_DIR")
	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Share.BaseURL, "SHARE_BASE_URL")
	setString(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Minio.BucketName, "MINIO_BUCKET")

	if v, ok := os.LookupEnv("DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DEBUG: %w", err)
		}
		c.App.Debug = b
	}
	if v, ok := os.LookupEnv("PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = n
	}
	if v, ok := os.LookupEnv("MAX_FILE_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_FILE_SIZE: %w", err)
		}
		c.Upload.MaxFileSize = n
	}
	if v, ok := os.LookupEnv("OPENAI_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("OPENAI_TIMEOUT: %w", err)
		}
		c.OpenAI.Timeout = d
	}
	if v, ok := os.LookupEnv("RATE_LIMIT_CAPACITY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_CAPACITY: %w", err)
		}
		c.RateLimit.Capacity = n
	}
	if v, ok := os.LookupEnv("RATE_LIMIT_REFILL"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_REFILL: %w", err)
		}
		c.RateLimit.RefillPerSecond = n
	}
	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		c.CORS.Origins = splitList(v)
	}
	return nil
}

// DSN resolves the driver name and DSN to hand to sql.Open.
func (c *Config) DSN() (driver, dsn string) {
	u := strings.TrimSpace(c.Database.URL)
	switch {
	case u == "":
		return DriverMySQL, c.MySQLDSN()
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return DriverPostgres, u
	case strings.HasPrefix(u, "mysql://"):
		return DriverMySQL, strings.TrimPrefix(u, "mysql://")
	case strings.HasPrefix(u, "memory://"):
		return DriverMemory, ""
	default:
		return DriverMySQL, u
	}
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

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
