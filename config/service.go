package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix 环境变量前缀：RECS_SERVER_ADDR -> server.addr
	EnvPrefix = "RECS_"
	// ConfigPathEnvVar 指定配置文件路径
	ConfigPathEnvVar = "CONFIG_PATH"
)

// DefaultConfigPaths 未设置 CONFIG_PATH 时依次查找
var DefaultConfigPaths = []string{"config.yaml", "/etc/recblend/config.yaml"}

// Service 是服务进程配置。
type Service struct {
	Server     ServerConfig     `koanf:"server"`
	Log        LogConfig        `koanf:"log"`
	Events     EventsConfig     `koanf:"events"`
	Similarity SimilarityConfig `koanf:"similarity"`
	Offline    OfflineConfig    `koanf:"offline"`
	Redis      RedisConfig      `koanf:"redis"`
	Pipeline   PipelineConfig   `koanf:"pipeline"`
	Feedback   FeedbackConfig   `koanf:"feedback"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	RequestTimeout  time.Duration `koanf:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

type EventsConfig struct {
	Backend string        `koanf:"backend" validate:"oneof=http redis"`
	URL     string        `koanf:"url" validate:"required_if=Backend http"`
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
	K       int           `koanf:"k" validate:"gt=0"`
}

type SimilarityConfig struct {
	Backend string        `koanf:"backend" validate:"oneof=http feast"`
	URL     string        `koanf:"url" validate:"required_if=Backend http"`
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
	// FeastEndpoint 形如 localhost:6565
	FeastEndpoint string `koanf:"feast_endpoint" validate:"required_if=Backend feast"`
	FeastProject  string `koanf:"feast_project" validate:"required_if=Backend feast"`
	FeastView     string `koanf:"feast_view"`
	FeastToken    string `koanf:"feast_token"`
}

type OfflineConfig struct {
	Backend      string `koanf:"backend" validate:"oneof=parquet redis"`
	PersonalPath string `koanf:"personal_path" validate:"required_if=Backend parquet"`
	DefaultPath  string `koanf:"default_path" validate:"required_if=Backend parquet"`
	KeyPrefix    string `koanf:"key_prefix"`
}

type RedisConfig struct {
	Addr string `koanf:"addr"`
	DB   int    `koanf:"db" validate:"gte=0"`
}

type PipelineConfig struct {
	// Path 后处理节点 YAML，为空表示融合结果不做后处理
	Path string `koanf:"path"`
}

type FeedbackConfig struct {
	// Brokers 为空时不发送曝光事件
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

// Enabled 是否配置了 Kafka
func (c FeedbackConfig) Enabled() bool { return len(c.Brokers) > 0 }

// DefaultService 返回默认配置
func DefaultService() *Service {
	return &Service{
		Server: ServerConfig{
			Addr:            ":8000",
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Events: EventsConfig{
			Backend: "http",
			URL:     "http://127.0.0.1:8020",
			Timeout: 2 * time.Second,
			K:       3,
		},
		Similarity: SimilarityConfig{
			Backend:   "http",
			URL:       "http://127.0.0.1:8010",
			Timeout:   2 * time.Second,
			FeastView: "item_similarity",
		},
		Offline: OfflineConfig{
			Backend:      "parquet",
			PersonalPath: "data/final_recommendations_feat.parquet",
			DefaultPath:  "data/top_recs.parquet",
			KeyPrefix:    "recs",
		},
		Redis:    RedisConfig{Addr: "127.0.0.1:6379"},
		Feedback: FeedbackConfig{Topic: "recs.impressions"},
	}
}

var sliceConfigPaths = []string{"feedback.brokers"}

// Load 按 默认值 -> 配置文件 -> 环境变量 的顺序加载配置，后者覆盖前者。
func Load() (*Service, error) {
	return LoadFrom(findConfigFile())
}

// LoadFrom 与 Load 相同，但显式指定配置文件（空字符串表示不读文件）。
func LoadFrom(configPath string) (*Service, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultService(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Service{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate 校验配置
func (c *Service) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Offline.Backend == "redis" || c.Events.Backend == "redis" {
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when a redis backend is selected")
		}
	}
	if c.Feedback.Enabled() && c.Feedback.Topic == "" {
		return fmt.Errorf("feedback.topic is required when feedback.brokers is set")
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransformFunc 把 RECS_SIMILARITY_FEAST_ENDPOINT 转为 similarity.feast_endpoint：
// 第一段为配置节，其余部分为字段名。
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, field, ok := strings.Cut(key, "_")
	if !ok || field == "" {
		return ""
	}
	return section + "." + field
}

// processSliceFields 把环境变量中逗号分隔的字符串转成切片
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
