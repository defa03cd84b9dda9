package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"diagraph/internal/converter/inference"
)

var ErrBadTuning = errors.New("bad tuning file")

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port           string
	Environment    string
	ReadTimeout    int
	WriteTimeout   int
	DBPath         string
	MigrationsPath string
	SourceDir      string
	// Jobs bounds the pages converted in parallel; 0 means GOMAXPROCS.
	Jobs        int
	TuningFile  string
	CORSOrigins []string
	BodyLimit   int
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "3001"),
		Environment:    getEnv("ENV", "development"),
		ReadTimeout:    getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout:   getEnvAsInt("WRITE_TIMEOUT", 10),
		DBPath:         getEnv("DB_PATH", "data/db/graphs.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations/001_init_graphs.sql"),
		SourceDir:      getEnv("SOURCE_DIR", "source"),
		Jobs:           getEnvAsInt("JOBS", 0),
		TuningFile:     getEnv("TUNING_FILE", ""),
		CORSOrigins:    getEnvAsList("CORS_ORIGINS", []string{"*"}),
		BodyLimit:      getEnvAsInt("BODY_LIMIT_MB", 32) * 1024 * 1024,
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// getEnvAsList разбирает список через запятую
func getEnvAsList(key string, defaultVal []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

// ============================================================
// Tuning
// ============================================================

type tuningFile struct {
	Epsilon               float64 `toml:"epsilon"`
	Flatness              float64 `toml:"flatness"`
	Precision             int     `toml:"precision"`
	TextInferenceDistance float64 `toml:"text_inference_distance"`
	UseRealConnections    bool    `toml:"use_real_connections"`
	FirstSplitID          int64   `toml:"first_split_id"`
}

// LoadTuning reads pipeline parameters from a TOML file. Keys missing from
// the file keep their defaults; an empty path returns the defaults.
func LoadTuning(path string) (inference.Config, error) {
	cfg := inference.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	var f tuningFile
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrBadTuning, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("%w: unknown key %q", ErrBadTuning, undecoded[0].String())
	}

	if meta.IsDefined("epsilon") {
		if f.Epsilon <= 0 {
			return cfg, fmt.Errorf("%w: epsilon must be positive", ErrBadTuning)
		}
		cfg.Kernel.Epsilon = f.Epsilon
	}
	if meta.IsDefined("flatness") {
		if f.Flatness <= 0 {
			return cfg, fmt.Errorf("%w: flatness must be positive", ErrBadTuning)
		}
		cfg.Kernel.Flatness = f.Flatness
	}
	if meta.IsDefined("precision") {
		if f.Precision < 0 || f.Precision > 15 {
			return cfg, fmt.Errorf("%w: precision must be within 0..15", ErrBadTuning)
		}
		cfg.Kernel.Precision = f.Precision
	}
	if meta.IsDefined("text_inference_distance") {
		if f.TextInferenceDistance < 0 {
			return cfg, fmt.Errorf("%w: text_inference_distance must not be negative", ErrBadTuning)
		}
		cfg.TextInferenceDistance = f.TextInferenceDistance
	}
	if meta.IsDefined("use_real_connections") {
		cfg.UseRealConnections = f.UseRealConnections
	}
	if meta.IsDefined("first_split_id") {
		// синтетические id не должны пересекаться с исходными
		if f.FirstSplitID >= 0 {
			return cfg, fmt.Errorf("%w: first_split_id must be negative", ErrBadTuning)
		}
		cfg.FirstSplitID = f.FirstSplitID
	}
	return cfg, nil
}
