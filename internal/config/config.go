/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config provides configuration management for the daemon.
// config 包提供守护进程的配置管理功能。
//
// Configuration loading priority (highest to lowest):
// 配置加载优先级（从高到低）：
// 1. Environment variables / 环境变量
// 2. Configuration file / 配置文件
// 3. Default values / 默认值
//
// The supervisor core never reads files or environment variables itself;
// all loading happens here and is handed over as plain data.
// 监管器核心自身从不读取文件或环境变量；所有加载都在此包完成，
// 并以纯数据形式交接。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/procwarden/procwarden/internal/registry"
)

// Default configuration values
// 默认配置值
const (
	DefaultConfigPath    = "/etc/procwarden/config.yaml"
	DefaultBaseDelay     = 5 * time.Second
	DefaultMaxAttempts   = 3
	DefaultGracePeriod   = 2 * time.Second
	DefaultLogLevel      = "info"
	DefaultLogFile       = "/var/log/procwarden/procwarden.log"
	DefaultLogMaxSize    = 100 // MB
	DefaultLogMaxBackups = 3
	DefaultLogMaxAge     = 7 // days
)

// Config is the full daemon configuration.
// Config 是守护进程的完整配置。
type Config struct {
	// Supervisor tuning / 监管器调优参数
	Supervisor SupervisorConfig `mapstructure:"supervisor" yaml:"supervisor"`

	// Log sink settings / 日志接收端设置
	Log LogConfig `mapstructure:"log" yaml:"log"`

	// Workers is the static list of worker definitions
	// Workers 是静态的工作进程定义列表
	Workers []WorkerConfig `mapstructure:"workers" yaml:"workers"`
}

// SupervisorConfig tunes the restart policy and shutdown behavior.
// SupervisorConfig 调优重启策略和关闭行为。
type SupervisorConfig struct {
	// BaseDelay is the restart backoff unit; attempt k waits BaseDelay * k
	// BaseDelay 是重启退避单位；第 k 次尝试等待 BaseDelay * k
	BaseDelay time.Duration `mapstructure:"base_delay" yaml:"base_delay"`

	// MaxAttempts is the relaunch budget per worker before it is marked failed
	// MaxAttempts 是每个工作进程被标记失败前的重启预算
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`

	// GracePeriod is the voluntary-exit window during shutdown
	// GracePeriod 是关闭期间自愿退出的时间窗口
	GracePeriod time.Duration `mapstructure:"grace_period" yaml:"grace_period"`
}

// LogConfig contains logging settings.
// LogConfig 包含日志设置。
type LogConfig struct {
	// Level is the log level (debug, info, warn, error)
	// Level 是日志级别（debug, info, warn, error）
	Level string `mapstructure:"level" yaml:"level"`

	// File is the log file path; empty disables file output
	// File 是日志文件路径；为空时禁用文件输出
	File string `mapstructure:"file" yaml:"file"`

	// MaxSize is the maximum size of the log file in MB before rotation
	// MaxSize 是日志文件轮转前的最大大小（MB）
	MaxSize int `mapstructure:"max_size" yaml:"max_size"`

	// MaxBackups is the maximum number of old log files to retain
	// MaxBackups 是保留的旧日志文件的最大数量
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`

	// MaxAge is the maximum number of days to retain old log files
	// MaxAge 是保留旧日志文件的最大天数
	MaxAge int `mapstructure:"max_age" yaml:"max_age"`
}

// WorkerConfig is the on-disk form of one worker definition.
// WorkerConfig 是单个工作进程定义的磁盘形式。
type WorkerConfig struct {
	ID           string            `mapstructure:"id" yaml:"id"`
	DisplayName  string            `mapstructure:"display_name" yaml:"display_name"`
	Executable   string            `mapstructure:"executable" yaml:"executable"`
	Args         []string          `mapstructure:"args" yaml:"args,omitempty"`
	Enabled      bool              `mapstructure:"enabled" yaml:"enabled"`
	Capabilities []string          `mapstructure:"capabilities" yaml:"capabilities,omitempty"`
	Env          map[string]string `mapstructure:"env" yaml:"env,omitempty"`
}

// Load loads configuration from file and environment variables.
// Load 从文件和环境变量加载配置。
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values / 设置默认值
	setDefaults(v)

	// Set config file path / 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Check environment variable / 检查环境变量
		envPath := os.Getenv("PROCWARDEN_CONFIG_PATH")
		if envPath != "" {
			v.SetConfigFile(envPath)
		} else {
			v.SetConfigFile(DefaultConfigPath)
		}
	}

	// Enable environment variable override / 启用环境变量覆盖
	v.SetEnvPrefix("PROCWARDEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file; a missing file falls back to defaults
	// 读取配置文件；文件缺失时回退到默认值
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(v.ConfigFileUsed()); statErr == nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal config / 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
// setDefaults 设置配置默认值。
func setDefaults(v *viper.Viper) {
	// Supervisor defaults / 监管器默认值
	v.SetDefault("supervisor.base_delay", DefaultBaseDelay)
	v.SetDefault("supervisor.max_attempts", DefaultMaxAttempts)
	v.SetDefault("supervisor.grace_period", DefaultGracePeriod)

	// Log defaults / 日志默认值
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.file", DefaultLogFile)
	v.SetDefault("log.max_size", DefaultLogMaxSize)
	v.SetDefault("log.max_backups", DefaultLogMaxBackups)
	v.SetDefault("log.max_age", DefaultLogMaxAge)
}

// Validate validates the configuration.
// Validate 验证配置。
func (c *Config) Validate() error {
	// Validate supervisor tuning / 验证监管器调优参数
	if c.Supervisor.BaseDelay <= 0 {
		return errors.New("supervisor.base_delay must be positive")
	}
	if c.Supervisor.MaxAttempts < 0 {
		return errors.New("supervisor.max_attempts must not be negative")
	}
	if c.Supervisor.GracePeriod <= 0 {
		return errors.New("supervisor.grace_period must be positive")
	}

	// Validate log level / 验证日志级别
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}

	// Validate worker entries; ID uniqueness is enforced by the registry
	// 验证工作进程条目；ID 唯一性由注册表强制执行
	for i, w := range c.Workers {
		if w.ID == "" {
			return fmt.Errorf("workers[%d].id is required", i)
		}
		if w.Executable == "" {
			return fmt.Errorf("workers[%d].executable is required (worker %q)", i, w.ID)
		}
	}

	return nil
}

// Definitions converts the configured workers into registry definitions.
// Definitions 将配置的工作进程转换为注册表定义。
func (c *Config) Definitions() []registry.Definition {
	defs := make([]registry.Definition, 0, len(c.Workers))
	for _, w := range c.Workers {
		defs = append(defs, registry.Definition{
			ID:           w.ID,
			DisplayName:  w.DisplayName,
			Executable:   w.Executable,
			Args:         w.Args,
			Enabled:      w.Enabled,
			Capabilities: w.Capabilities,
			Env:          w.Env,
		})
	}
	return defs
}

// ToYAML serializes the configuration to YAML format.
// ToYAML 将配置序列化为 YAML 格式。
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// LoadFromYAML loads configuration from YAML bytes.
// LoadFromYAML 从 YAML 字节加载配置。
func LoadFromYAML(yamlData []byte) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults first / 首先设置默认值
	setDefaults(v)

	// Read from bytes / 从字节读取
	if err := v.ReadConfig(strings.NewReader(string(yamlData))); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Unmarshal config / 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// String returns a short representation of the config for startup logging.
// String 返回用于启动日志的配置简短表示。
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Workers: %d, BaseDelay: %v, MaxAttempts: %d, GracePeriod: %v, Log.Level: %s}",
		len(c.Workers),
		c.Supervisor.BaseDelay,
		c.Supervisor.MaxAttempts,
		c.Supervisor.GracePeriod,
		c.Log.Level,
	)
}
