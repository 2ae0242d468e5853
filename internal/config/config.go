package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreMutex = "mutex"
	StoreLMAX  = "lmax"
)

// EnvTokenSecret 若有設定，覆蓋設定檔中的 http.token_secret
const EnvTokenSecret = "ATM_TOKEN_SECRET"

type Config struct {
	GRPC  GRPCConfig  `yaml:"grpc"`
	HTTP  HTTPConfig  `yaml:"http"`
	Store StoreConfig `yaml:"store"`
	Log   LogConfig   `yaml:"log"`
}

type GRPCConfig struct {
	Addr string `yaml:"addr"`
}

type HTTPConfig struct {
	Addr           string        `yaml:"addr"`
	TokenSecret    string        `yaml:"token_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type StoreConfig struct {
	// Type: mutex 或 lmax
	Type string `yaml:"type"`
}

type LogConfig struct {
	// Level: debug / info / warn / error
	Level string `yaml:"level"`
	// Format: json 或 text
	Format string `yaml:"format"`
}

// Load 讀取 YAML 設定檔並補上預設值
//
// 參數:
//
//	path: 設定檔路徑
//
// 回傳:
//
//	Config: 補完預設值的設定
//	error: 讀檔、解析或驗證錯誤
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse 解析 YAML 內容並補上預設值
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if secret := os.Getenv(EnvTokenSecret); secret != "" {
		cfg.HTTP.TokenSecret = secret
	}

	// 補全預設配置 (如果 yaml 沒寫)
	if cfg.GRPC.Addr == "" {
		cfg.GRPC.Addr = ":50051"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.TokenTTL == 0 {
		cfg.HTTP.TokenTTL = 15 * time.Minute
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"*"}
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = StoreMutex
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store.Type {
	case StoreMutex, StoreLMAX:
	default:
		return fmt.Errorf("unknown store.type %q (want %s or %s)", c.Store.Type, StoreMutex, StoreLMAX)
	}
	if c.HTTP.TokenSecret == "" {
		return errors.New("http.token_secret is required (or set " + EnvTokenSecret + ")")
	}
	if c.HTTP.TokenTTL < 0 {
		return errors.New("http.token_ttl must be positive")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}

func parseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return 0, fmt.Errorf("unknown log.level %q", level)
	}
	return l, nil
}

// NewLogger 依設定建立 slog.Logger
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
