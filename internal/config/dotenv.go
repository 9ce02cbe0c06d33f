package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port                     string  `yaml:"port"`
	BindAddress              string  `yaml:"bind_address"`
	TeacherUser              string  `yaml:"teacher_user"`
	TeacherPass              string  `yaml:"teacher_pass"`
	TeacherPassHash          string  `yaml:"teacher_pass_hash"`
	DatabasePath             string  `yaml:"database_path"`
	StaticDir                string  `yaml:"static_dir"`
	SubmitRatePerSecond      float64 `yaml:"submit_rate_per_sec"`
	SubmitBurst              int     `yaml:"submit_burst"`
	WSTokenSecret            string  `yaml:"ws_token_secret"`
	WSTokenTTLSeconds        int     `yaml:"ws_token_ttl_seconds"`
	DBMaxOpenConns           int     `yaml:"db_max_open_conns"`
	DBMaxIdleConns           int     `yaml:"db_max_idle_conns"`
	DBConnMaxLifetimeSeconds int     `yaml:"db_conn_max_lifetime_seconds"`
	DBConnMaxIdleTimeSeconds int     `yaml:"db_conn_max_idle_seconds"`
}

// Default returns the local development settings. The teacher password
// default is only meant for a trusted classroom network.
func Default() Config {
	return Config{
		Port:                     "3000",
		BindAddress:              "0.0.0.0",
		TeacherUser:              "teacher",
		TeacherPass:              "adminpass",
		DatabasePath:             "scores.db",
		StaticDir:                "public",
		SubmitRatePerSecond:      10,
		SubmitBurst:              30,
		WSTokenTTLSeconds:        3600,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
	}
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return c.BindAddress + ":" + c.Port
}

// Load layers an optional YAML file (SCORES_CONFIG) and then the process
// environment over Default.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("SCORES_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	if raw := os.Getenv("BIND_ADDRESS"); raw != "" {
		cfg.BindAddress = raw
	}
	if raw := os.Getenv("TEACHER_USER"); raw != "" {
		cfg.TeacherUser = raw
	}
	if raw := os.Getenv("TEACHER_PASS"); raw != "" {
		cfg.TeacherPass = raw
	}
	if raw := os.Getenv("TEACHER_PASS_HASH"); raw != "" {
		cfg.TeacherPassHash = raw
	}
	if raw := os.Getenv("DATABASE_PATH"); raw != "" {
		cfg.DatabasePath = raw
	}
	if raw := os.Getenv("STATIC_DIR"); raw != "" {
		cfg.StaticDir = raw
	}
	if raw := os.Getenv("SUBMIT_RATE_PER_SEC"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value >= 0 {
			cfg.SubmitRatePerSecond = value
		}
	}
	if raw := os.Getenv("SUBMIT_BURST"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.SubmitBurst = value
		}
	}
	if raw := os.Getenv("WS_TOKEN_SECRET"); raw != "" {
		cfg.WSTokenSecret = raw
	}
	if raw := os.Getenv("WS_TOKEN_TTL_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.WSTokenTTLSeconds = value
		}
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
}
