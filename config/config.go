package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	ENV_DEVELOPMENT = "development"
	ENV_HOMOLOG     = "homolog"
	ENV_RELEASE     = "production"

	ACCOUNT_SEQUENCE_COUNT = "count"
	ACCOUNT_SEQUENCE_REDIS = "redis"
)

var allowedEnvValues = []string{ENV_DEVELOPMENT, ENV_HOMOLOG, ENV_RELEASE}

var allowedSequences = []string{ACCOUNT_SEQUENCE_COUNT, ACCOUNT_SEQUENCE_REDIS}

// Configuration holds the static settings needed to run the server.
type Configuration struct {
	Env              string        `env:"ENV" envDefault:"development"`
	Port             string        `env:"PORT" envDefault:"8080"`
	MongoURI         string        `env:"MONGODB_URI,required"`
	MySQLURI         string        `env:"MYSQL_URI"`
	RedisURI         string        `env:"REDIS_URI"`
	JwtSecret        string        `env:"JWT_SECRET,required"`
	JwtExpiry        time.Duration `env:"JWT_EXPIRY" envDefault:"1h"`
	CORSOrigins      []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"LOG_FORMAT" envDefault:"text"`
	AccountSequence  string        `env:"ACCOUNT_SEQUENCE" envDefault:"count"`
	SettingsCacheTTL time.Duration `env:"SETTINGS_CACHE_TTL" envDefault:"5m"`
}

// Load reads the optional .env files, then parses and validates the environment.
func Load(files ...string) (*Configuration, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("[ENV] load %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Configuration]()
	if err != nil {
		return nil, fmt.Errorf("[ENV] parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Configuration) Validate() error {
	if !slices.Contains(allowedEnvValues, c.Env) {
		return fmt.Errorf("[ENV] invalid value for ENV: %s. Allowed values: %s",
			c.Env, strings.Join(allowedEnvValues, ", "))
	}
	if !slices.Contains(allowedSequences, c.AccountSequence) {
		return fmt.Errorf("[ENV] invalid value for ACCOUNT_SEQUENCE: %s. Allowed values: %s",
			c.AccountSequence, strings.Join(allowedSequences, ", "))
	}
	if c.AccountSequence == ACCOUNT_SEQUENCE_REDIS && c.RedisURI == "" {
		return errors.New("[ENV] ACCOUNT_SEQUENCE=redis requires REDIS_URI")
	}
	return nil
}

func (c *Configuration) IsProduction() bool { return c.Env == ENV_RELEASE }
