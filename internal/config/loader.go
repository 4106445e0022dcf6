package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SERUM_VIAL_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load. An empty path skips
// the TOML file and uses defaults plus environment overrides only.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SERUM_VIAL_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators tweak a deployment without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Solana ──
	setStr(&cfg.Solana.NodeEndpoint, "SERUM_VIAL_SOLANA_NODE_ENDPOINT")
	setInt(&cfg.Solana.WSEndpointPort, "SERUM_VIAL_SOLANA_WS_ENDPOINT_PORT")
	setStr(&cfg.Solana.Commitment, "SERUM_VIAL_SOLANA_COMMITMENT")

	// ── Server ──
	setInt(&cfg.Server.Port, "SERUM_VIAL_SERVER_PORT")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "SERUM_VIAL_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "SERUM_VIAL_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SERUM_VIAL_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SERUM_VIAL_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SERUM_VIAL_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SERUM_VIAL_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SERUM_VIAL_REDIS_TLS_ENABLED")

	// ── Top-level ──
	setStringSlice(&cfg.Markets, "SERUM_VIAL_MARKETS")
	setBool(&cfg.ValidateL3Diffs, "SERUM_VIAL_VALIDATE_L3_DIFFS")
	setStr(&cfg.LogLevel, "SERUM_VIAL_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
