// Package config loads runtime settings from the environment, an optional .env file
// and an optional TOML scoring policy file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/baditaflorin/go_prompt_score/internal/adapters/generator"
	"github.com/baditaflorin/go_prompt_score/internal/core/art"
	"github.com/baditaflorin/go_prompt_score/internal/core/phrase"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Store drivers.
const (
	StoreNone     = ""
	StoreSQLite   = "sqlite"
	StoreSupabase = "supabase"
)

// Policy is the tunable scoring policy. Zero-valued sections of a policy file keep
// their defaults.
type Policy struct {
	Phrase phrase.Config `toml:"phrase"`
	Art    art.Config    `toml:"art"`
}

// DefaultPolicy returns the built-in scoring policy.
func DefaultPolicy() Policy {
	return Policy{
		Phrase: phrase.DefaultConfig(),
		Art:    art.DefaultConfig(),
	}
}

// Validate checks both sections.
func (p Policy) Validate() error {
	if err := p.Phrase.Validate(); err != nil {
		return fmt.Errorf("phrase policy: %w", err)
	}
	if err := p.Art.Validate(); err != nil {
		return fmt.Errorf("art policy: %w", err)
	}
	return nil
}

// Store selects and configures the session store.
type Store struct {
	Driver      string
	SQLitePath  string
	SupabaseURL string
	SupabaseKey string
}

// Config is the full runtime configuration.
type Config struct {
	Policy     Policy
	PolicyFile string

	// Optimized selects the pooled ASCII fast-path normalizer.
	Optimized bool
	WarmUp    bool
	LogJSON   bool
	LogFile   string

	Generator generator.Config
	Store     Store
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Policy:    DefaultPolicy(),
		Generator: generator.DefaultConfig(),
		Store: Store{
			SQLitePath: "promptscore.db",
		},
	}
}

// Load reads envFile (if it exists), then the environment, then the policy file
// named by PROMPTSCORE_POLICY_FILE. An empty envFile means ".env".
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, which has the signature of os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("PROMPTSCORE_POLICY_FILE", &cfg.PolicyFile)
	boolean("PROMPTSCORE_OPTIMIZED_NORMALIZER", &cfg.Optimized)
	boolean("PROMPTSCORE_WARMUP", &cfg.WarmUp)
	boolean("PROMPTSCORE_LOG_JSON", &cfg.LogJSON)
	str("PROMPTSCORE_LOG_FILE", &cfg.LogFile)

	str("GEMINI_API_KEY", &cfg.Generator.APIKey)
	str("PROMPTSCORE_MODEL", &cfg.Generator.Model)
	if v, ok := lookup("PROMPTSCORE_GENERATOR_RETRIES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PROMPTSCORE_GENERATOR_RETRIES: %w", err))
		} else {
			cfg.Generator.Retry.Retries = n
		}
	}
	if v, ok := lookup("PROMPTSCORE_GENERATOR_RETRY_DELAY"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PROMPTSCORE_GENERATOR_RETRY_DELAY: %w", err))
		} else {
			cfg.Generator.Retry.Delay = d
		}
	}

	str("PROMPTSCORE_STORE", &cfg.Store.Driver)
	str("PROMPTSCORE_SQLITE_PATH", &cfg.Store.SQLitePath)
	str("SUPABASE_URL", &cfg.Store.SupabaseURL)
	str("SUPABASE_KEY", &cfg.Store.SupabaseKey)

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	if cfg.PolicyFile != "" {
		policy, err := LoadPolicy(cfg.PolicyFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Policy = policy
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the policy and the store selection.
func (c Config) Validate() error {
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	switch c.Store.Driver {
	case StoreNone:
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("sqlite store requires PROMPTSCORE_SQLITE_PATH")
		}
	case StoreSupabase:
		if c.Store.SupabaseURL == "" || c.Store.SupabaseKey == "" {
			return errors.New("supabase store requires SUPABASE_URL and SUPABASE_KEY")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return c.Generator.Retry.Validate()
}

// LoadPolicy reads a TOML policy file. Keys absent from the file keep their defaults.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes TOML policy data over the defaults and validates the result.
func ParsePolicy(data []byte) (Policy, error) {
	policy := DefaultPolicy()
	// Array tables append to existing slices, so tiers start empty.
	policy.Phrase.Tiers, policy.Art.Tiers = nil, nil
	if err := toml.Unmarshal(data, &policy); err != nil {
		return Policy{}, fmt.Errorf("parse policy: %w", err)
	}
	if policy.Phrase.Tiers == nil {
		policy.Phrase.Tiers = phrase.DefaultConfig().Tiers
	}
	if policy.Art.Tiers == nil {
		policy.Art.Tiers = art.DefaultConfig().Tiers
	}
	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}

// MarshalPolicy encodes p as TOML, for writing a starting policy file.
func MarshalPolicy(p Policy) ([]byte, error) {
	return toml.Marshal(p)
}
