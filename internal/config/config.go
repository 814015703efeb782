package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Store struct {
		// Driver selects the document store: memory, postgres or firestore.
		Driver string `yaml:"driver"`
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Firestore struct {
		ProjectID       string `yaml:"project_id"`
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"firestore"`
	Quiz struct {
		TTL      string `yaml:"ttl"`
		Timezone string `yaml:"timezone"`
	} `yaml:"quiz"`
	Auth struct {
		// Provider is firebase or jwt.
		Provider  string `yaml:"provider"`
		JWTSecret string `yaml:"jwt_secret"`
		JWTTTL    string `yaml:"jwt_ttl"`
	} `yaml:"auth"`
	Upload struct {
		Endpoint  string `yaml:"endpoint"`
		LocalDir  string `yaml:"local_dir"`
		PublicURL string `yaml:"public_url"`
		MaxBytes  int64  `yaml:"max_bytes"`
	} `yaml:"upload"`
	Payment struct {
		Method   string           `yaml:"method"`
		Prices   map[string]int64 `yaml:"prices"`
		GuardTTL string           `yaml:"guard_ttl"`
	} `yaml:"payment"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	I18n struct {
		Lang string `yaml:"lang"`
	} `yaml:"i18n"`
}

// Load reads YAML config from path and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv lets deployments keep secrets out of the YAML file.
func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" && c.Firestore.ProjectID == "" {
		c.Firestore.ProjectID = v
	}
}

func (c *Config) applyDefaults() {
	if c.Store.Driver == "" {
		switch {
		case c.Postgres.URL != "":
			c.Store.Driver = "postgres"
		case c.Firestore.ProjectID != "":
			c.Store.Driver = "firestore"
		default:
			c.Store.Driver = "memory"
		}
	}
	c.Store.Driver = strings.ToLower(c.Store.Driver)
	if c.Auth.Provider == "" {
		c.Auth.Provider = "jwt"
	}
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = 5 << 20
	}
	if c.Payment.Method == "" {
		c.Payment.Method = "eSewa"
	}
	if c.Payment.Prices == nil {
		c.Payment.Prices = map[string]int64{}
	}
	for series, price := range DefaultPrices {
		if _, ok := c.Payment.Prices[series]; !ok {
			c.Payment.Prices[series] = price
		}
	}
	if c.I18n.Lang == "" {
		c.I18n.Lang = "en"
	}
}

// DefaultPrices is the price table (NPR) used when the config omits a series.
var DefaultPrices = map[string]int64{"IOE": 100, "CEE": 100, "LIVE": 50}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Location resolves the quiz timezone, falling back to the process local zone.
func (c Config) Location() *time.Location {
	if c.Quiz.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Quiz.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
