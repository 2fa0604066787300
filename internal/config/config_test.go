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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfig tests configuration loading from a file
// TestLoadConfig 测试从文件加载配置
func TestLoadConfig(t *testing.T) {
	// Create a temporary config file / 创建临时配置文件
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
supervisor:
  base_delay: 2s
  max_attempts: 5
  grace_period: 10s

log:
  level: debug
  file: /tmp/procwarden.log
  max_size: 50
  max_backups: 5
  max_age: 14

workers:
  - id: ingest
    display_name: "Ingest Pipeline"
    executable: /opt/bin/ingest
    args: ["--listen", ":9801"]
    enabled: true
    capabilities: ["http", "metrics"]
    env:
      INGEST_BUFFER_SIZE: "4096"
  - id: reporter
    executable: /opt/bin/reporter
    enabled: false
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	// Load config / 加载配置
	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Verify values / 验证值
	assert.Equal(t, 2*time.Second, cfg.Supervisor.BaseDelay)
	assert.Equal(t, 5, cfg.Supervisor.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Supervisor.GracePeriod)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/procwarden.log", cfg.Log.File)
	assert.Equal(t, 50, cfg.Log.MaxSize)
	assert.Equal(t, 5, cfg.Log.MaxBackups)
	assert.Equal(t, 14, cfg.Log.MaxAge)

	require.Len(t, cfg.Workers, 2)
	assert.Equal(t, "ingest", cfg.Workers[0].ID)
	assert.Equal(t, "Ingest Pipeline", cfg.Workers[0].DisplayName)
	assert.Equal(t, []string{"--listen", ":9801"}, cfg.Workers[0].Args)
	assert.True(t, cfg.Workers[0].Enabled)
	assert.Equal(t, []string{"http", "metrics"}, cfg.Workers[0].Capabilities)
	assert.Equal(t, "4096", cfg.Workers[0].Env["INGEST_BUFFER_SIZE"])
	assert.False(t, cfg.Workers[1].Enabled)
}

// TestLoadConfigDefaults tests default configuration values
// TestLoadConfigDefaults 测试默认配置值
func TestLoadConfigDefaults(t *testing.T) {
	// Create a minimal config file / 创建最小配置文件
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
workers:
  - id: solo
    executable: /opt/bin/solo
    enabled: true
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// Verify defaults / 验证默认值
	assert.Equal(t, DefaultBaseDelay, cfg.Supervisor.BaseDelay)
	assert.Equal(t, DefaultMaxAttempts, cfg.Supervisor.MaxAttempts)
	assert.Equal(t, DefaultGracePeriod, cfg.Supervisor.GracePeriod)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultLogFile, cfg.Log.File)
	assert.Equal(t, DefaultLogMaxSize, cfg.Log.MaxSize)
}

// TestLoadConfigMissingFile tests that a missing file falls back to defaults
// TestLoadConfigMissingFile 测试文件缺失时回退到默认值
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseDelay, cfg.Supervisor.BaseDelay)
	assert.Empty(t, cfg.Workers)
}

// TestValidate tests configuration validation
// TestValidate 测试配置验证
func TestValidate(t *testing.T) {
	valid := &Config{
		Supervisor: SupervisorConfig{
			BaseDelay:   time.Second,
			MaxAttempts: 3,
			GracePeriod: time.Second,
		},
		Log: LogConfig{Level: "info"},
		Workers: []WorkerConfig{
			{ID: "a", Executable: "/bin/a"},
		},
	}
	assert.NoError(t, valid.Validate())

	// Non-positive base delay / 非正数基础延迟
	bad := *valid
	bad.Supervisor.BaseDelay = 0
	assert.Error(t, bad.Validate())

	// Negative attempt budget / 负数尝试预算
	bad = *valid
	bad.Supervisor.MaxAttempts = -1
	assert.Error(t, bad.Validate())

	// Non-positive grace period / 非正数宽限时间
	bad = *valid
	bad.Supervisor.GracePeriod = 0
	assert.Error(t, bad.Validate())

	// Bad log level / 错误的日志级别
	bad = *valid
	bad.Log.Level = "verbose"
	assert.Error(t, bad.Validate())

	// Worker without id / 缺少 id 的工作进程
	bad = *valid
	bad.Workers = []WorkerConfig{{Executable: "/bin/a"}}
	assert.Error(t, bad.Validate())

	// Worker without executable / 缺少可执行文件的工作进程
	bad = *valid
	bad.Workers = []WorkerConfig{{ID: "a"}}
	assert.Error(t, bad.Validate())
}

// TestDefinitions tests conversion into registry definitions
// TestDefinitions 测试转换为注册表定义
func TestDefinitions(t *testing.T) {
	cfg := &Config{
		Workers: []WorkerConfig{
			{
				ID:           "ingest",
				DisplayName:  "Ingest",
				Executable:   "/opt/bin/ingest",
				Args:         []string{"-v"},
				Enabled:      true,
				Capabilities: []string{"http"},
				Env:          map[string]string{"K": "V"},
			},
		},
	}

	defs := cfg.Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "ingest", defs[0].ID)
	assert.Equal(t, "Ingest", defs[0].DisplayName)
	assert.Equal(t, "/opt/bin/ingest", defs[0].Executable)
	assert.Equal(t, []string{"-v"}, defs[0].Args)
	assert.True(t, defs[0].Enabled)
	assert.Equal(t, []string{"http"}, defs[0].Capabilities)
	assert.Equal(t, "V", defs[0].Env["K"])
}

// TestToYAMLRoundTrip tests that a serialized config loads back identically
// TestToYAMLRoundTrip 测试序列化的配置可以原样加载回来
func TestToYAMLRoundTrip(t *testing.T) {
	cfg := &Config{
		Supervisor: SupervisorConfig{
			BaseDelay:   3 * time.Second,
			MaxAttempts: 7,
			GracePeriod: time.Second,
		},
		Log: LogConfig{Level: "warn", File: "/tmp/x.log", MaxSize: 10, MaxBackups: 1, MaxAge: 2},
		Workers: []WorkerConfig{
			{ID: "a", Executable: "/bin/a", Enabled: true},
		},
	}

	data, err := cfg.ToYAML()
	require.NoError(t, err)

	loaded, err := LoadFromYAML(data)
	require.NoError(t, err)

	assert.Equal(t, cfg.Supervisor, loaded.Supervisor)
	assert.Equal(t, cfg.Log, loaded.Log)
	require.Len(t, loaded.Workers, 1)
	assert.Equal(t, cfg.Workers[0].ID, loaded.Workers[0].ID)
}

// TestEnvOverride tests that environment variables win over the file
// TestEnvOverride 测试环境变量优先于文件
func TestEnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
log:
  level: info
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	t.Setenv("PROCWARDEN_LOG_LEVEL", "error")

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}
