// Package config 提供了 linecover 的统一配置加载与管理能力.
// 配置文件为 TOML，支持 APP_ 前缀的环境变量覆盖与热更新日志级别。
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wyfcoding/linecover/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config 全局顶级配置结构.
type Config struct {
	Version   string          `mapstructure:"version"   toml:"version"`
	Server    ServerConfig    `mapstructure:"server"    toml:"server"`
	Log       LogConfig       `mapstructure:"log"       toml:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   toml:"metrics"`
	Tracing   TracingConfig   `mapstructure:"tracing"   toml:"tracing"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit" toml:"ratelimit"`
	IDGen     IDGenConfig     `mapstructure:"idgen"     toml:"idgen"`
}

// ServerConfig 定义 HTTP API 的运行参数.
type ServerConfig struct {
	Name         string        `mapstructure:"name"          toml:"name"          validate:"required"`
	Environment  string        `mapstructure:"environment"   toml:"environment"   validate:"oneof=dev test prod"`
	Addr         string        `mapstructure:"addr"          toml:"addr"          validate:"required"`
	Timeout      time.Duration `mapstructure:"timeout"       toml:"timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"  toml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" toml:"write_timeout"`
	MaxPairs     int           `mapstructure:"max_pairs"     toml:"max_pairs"     validate:"min=0"` // 单次路径检查允许的最大路径数，0 表示不限制。
}

// LogConfig 定义日志输出、级别与切割策略.
type LogConfig struct {
	Level      string `mapstructure:"level"       toml:"level"       validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format"      toml:"format"      validate:"omitempty,oneof=json text"`
	File       string `mapstructure:"file"        toml:"file"`        // 日志文件路径。
	MaxSize    int    `mapstructure:"max_size"    toml:"max_size"`    // 单个文件最大大小 (MB)。
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups"` // 最大备份数。
	MaxAge     int    `mapstructure:"max_age"     toml:"max_age"`     // 最大保留天数。
	Compress   bool   `mapstructure:"compress"    toml:"compress"`    // 是否启用压缩。
}

// MetricsConfig 普罗米修斯监控指标暴露配置.
type MetricsConfig struct {
	Addr    string `mapstructure:"addr"    toml:"addr"`
	Path    string `mapstructure:"path"    toml:"path"`
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
}

// TracingConfig 链路追踪配置.
type TracingConfig struct {
	ServiceName  string  `mapstructure:"service_name"  toml:"service_name"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" toml:"otlp_endpoint" validate:"required_if=Enabled true"`
	SamplerRatio float64 `mapstructure:"sampler_ratio" toml:"sampler_ratio" validate:"min=0,max=1"`
	Enabled      bool    `mapstructure:"enabled"       toml:"enabled"`
}

// RateLimitConfig 定义 HTTP API 的限流参数。配置了 RedisAddr 时使用分布式滑动窗口。
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"    toml:"enabled"`
	Rate      int           `mapstructure:"rate"       toml:"rate"       validate:"min=0"`
	Burst     int           `mapstructure:"burst"      toml:"burst"      validate:"min=0"`
	RedisAddr string        `mapstructure:"redis_addr" toml:"redis_addr"`
	Window    time.Duration `mapstructure:"window"     toml:"window"`
}

// IDGenConfig 分布式 ID 生成器配置，用于请求 ID 与批处理运行 ID.
type IDGenConfig struct {
	Type      string `mapstructure:"type"       toml:"type"       validate:"omitempty,oneof=snowflake sonyflake"`
	StartTime string `mapstructure:"start_time" toml:"start_time"`
	MachineID int64  `mapstructure:"machine_id" toml:"machine_id" validate:"min=0,max=1023"`
}

// Default 返回不依赖配置文件即可运行的默认配置.
func Default() *Config {
	return &Config{
		Version: "dev",
		Server: ServerConfig{
			Name:         "linecover",
			Environment:  "dev",
			Addr:         ":8080",
			Timeout:      5 * time.Second,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{
			Addr: ":9090",
			Path: "/metrics",
		},
		Tracing: TracingConfig{
			ServiceName:  "linecover",
			SamplerRatio: 1.0,
		},
		RateLimit: RateLimitConfig{Rate: 1000, Burst: 2000, Window: time.Second},
		IDGen:     IDGenConfig{Type: "snowflake", MachineID: 1},
	}
}

var (
	mu        sync.Mutex
	vInstance = viper.New()
	onReload  []func(*Config)
	validate  = validator.New()
)

// RegisterReloadHook 注册配置热更新回调。
func RegisterReloadHook(hook func(*Config)) {
	if hook == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	onReload = append(onReload, hook)
}

// Validate 校验配置结构.
func Validate(conf *Config) error {
	if err := validate.Struct(conf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Load 读取 TOML 配置文件并与默认值合并；path 为空时只使用默认值与环境变量.
func Load(path string) (*Config, error) {
	conf := Default()

	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, conf)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config error: %w", err)
		}
	}

	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("unmarshal config error: %w", err)
	}
	if err := Validate(conf); err != nil {
		return nil, err
	}

	mu.Lock()
	vInstance = v
	mu.Unlock()

	return conf, nil
}

// Watch 监听配置文件变化，热更新日志级别并触发回调。仅在 Load 传入了文件路径时生效。
func Watch(conf *Config) {
	mu.Lock()
	v := vInstance
	mu.Unlock()
	if v.ConfigFileUsed() == "" {
		return
	}

	v.OnConfigChange(func(event fsnotify.Event) {
		slog.Info("detecting config change", "file", event.Name)

		next := Default()
		if err := v.Unmarshal(next); err != nil {
			slog.Error("reload config unmarshal failed", "error", err)
			return
		}
		if err := Validate(next); err != nil {
			slog.Error("reload config validation failed", "error", err)
			return
		}

		logging.SetLevel(next.Log.Level)
		*conf = *next
		slog.Info("config hot-reloaded and validated successfully", "log_level", next.Log.Level)

		mu.Lock()
		hooks := append([]func(*Config){}, onReload...)
		mu.Unlock()
		for _, hook := range hooks {
			hook(conf)
		}
	})
	v.WatchConfig()
}

// setDefaults 把默认值注册到 viper，使环境变量覆盖对未出现在文件中的键同样生效。
func setDefaults(v *viper.Viper, conf *Config) {
	defaults := map[string]any{
		"version":               conf.Version,
		"server.name":           conf.Server.Name,
		"server.environment":    conf.Server.Environment,
		"server.addr":           conf.Server.Addr,
		"server.timeout":        conf.Server.Timeout,
		"server.read_timeout":   conf.Server.ReadTimeout,
		"server.write_timeout":  conf.Server.WriteTimeout,
		"server.max_pairs":      conf.Server.MaxPairs,
		"log.level":             conf.Log.Level,
		"log.format":            conf.Log.Format,
		"log.file":              conf.Log.File,
		"log.max_size":          conf.Log.MaxSize,
		"log.max_backups":       conf.Log.MaxBackups,
		"log.max_age":           conf.Log.MaxAge,
		"log.compress":          conf.Log.Compress,
		"metrics.addr":          conf.Metrics.Addr,
		"metrics.path":          conf.Metrics.Path,
		"metrics.enabled":       conf.Metrics.Enabled,
		"tracing.service_name":  conf.Tracing.ServiceName,
		"tracing.otlp_endpoint": conf.Tracing.OTLPEndpoint,
		"tracing.sampler_ratio": conf.Tracing.SamplerRatio,
		"tracing.enabled":       conf.Tracing.Enabled,
		"ratelimit.enabled":     conf.RateLimit.Enabled,
		"ratelimit.rate":        conf.RateLimit.Rate,
		"ratelimit.burst":       conf.RateLimit.Burst,
		"ratelimit.redis_addr":  conf.RateLimit.RedisAddr,
		"ratelimit.window":      conf.RateLimit.Window,
		"idgen.type":            conf.IDGen.Type,
		"idgen.start_time":      conf.IDGen.StartTime,
		"idgen.machine_id":      conf.IDGen.MachineID,
	}
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
}

// PrintWithMask 脱敏打印当前配置.
func PrintWithMask(conf *Config) {
	masked := *conf
	if masked.RateLimit.RedisAddr != "" {
		masked.RateLimit.RedisAddr = "******"
	}
	slog.Debug("effective config", "config", masked)
}
