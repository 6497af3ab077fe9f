package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultJWTSecret is accepted only when CRM_ENV=development.
const DefaultJWTSecret = "supersecretkey"

type Config struct {
	Addr           string        `yaml:"addr"`
	JWTSecret      string        `yaml:"jwt_secret"`
	APITimeout     time.Duration `yaml:"timeout"`
	DatabasePath   string        `yaml:"database_path"`
	UploadDir      string        `yaml:"upload_dir"`
	TokenDuration  time.Duration `yaml:"token_duration"`
	MigrateOnStart bool          `yaml:"migrate_on_start"`
	AdminEmail     string        `yaml:"admin_email"`
	AdminPassword  string        `yaml:"admin_password"`
	Jobs           JobsConfig    `yaml:"jobs"`
	Client         ClientConfig  `yaml:"client"`
}

// JobsConfig sizes the update-log worker pool.
type JobsConfig struct {
	Workers      int           `yaml:"workers"`
	PollInterval time.Duration `yaml:"poll_interval"`
	BaseBackoff  time.Duration `yaml:"base_backoff"`
	MaxBackoff   time.Duration `yaml:"max_backoff"`
}

// ClientConfig is read by crmctl.
type ClientConfig struct {
	APIURL      string        `yaml:"api_url"`
	Timeout     time.Duration `yaml:"timeout"`
	SessionFile string        `yaml:"session_file"`
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	apiTimeout := 15 * time.Second
	tokenDuration := 1 * time.Hour

	cfg := &Config{
		Addr:           getEnv("CRM_ADDR", ":8080"),
		JWTSecret:      getEnv("CRM_JWT_SECRET", DefaultJWTSecret),
		APITimeout:     apiTimeout,
		DatabasePath:   getEnv("CRM_DATABASE_PATH", "crm.db"),
		UploadDir:      getEnv("CRM_UPLOAD_DIR", "uploads"),
		TokenDuration:  tokenDuration,
		MigrateOnStart: true,
		AdminEmail:     getEnv("CRM_ADMIN_EMAIL", ""),
		AdminPassword:  getEnv("CRM_ADMIN_PASSWORD", ""),
		Client: ClientConfig{
			APIURL:  getEnv("CRM_API_URL", "http://localhost:8080"),
			Timeout: 10 * time.Second,
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks required fields and fills defaults for optional sections.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("jwt_secret must not be empty")
	}
	if c.JWTSecret == DefaultJWTSecret && os.Getenv("CRM_ENV") != "development" {
		return errors.New("insecure default jwt_secret; set CRM_JWT_SECRET or CRM_ENV=development")
	}
	if c.DatabasePath == "" {
		return errors.New("database_path must not be empty")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.APITimeout)
	}
	if c.TokenDuration <= 0 {
		return fmt.Errorf("token_duration must be positive, got %s", c.TokenDuration)
	}
	if c.UploadDir == "" {
		c.UploadDir = "uploads"
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("admin_email and admin_password must be set together")
	}

	if c.Jobs.Workers <= 0 {
		c.Jobs.Workers = 2
	}
	if c.Jobs.PollInterval <= 0 {
		c.Jobs.PollInterval = time.Second
	}
	if c.Jobs.BaseBackoff <= 0 {
		c.Jobs.BaseBackoff = time.Second
	}
	if c.Jobs.MaxBackoff <= 0 {
		c.Jobs.MaxBackoff = time.Minute
	}
	return nil
}

// ValidateClient checks the crmctl section only.
func (c *Config) ValidateClient() error {
	if c.Client.APIURL == "" {
		return errors.New("client.api_url must not be empty")
	}
	if c.Client.Timeout <= 0 {
		c.Client.Timeout = 10 * time.Second
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
