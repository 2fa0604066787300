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

// Package main is the entry point for the procwarden daemon.
// main 包是 procwarden 守护进程的入口点。
//
// procwarden is a node daemon that supervises a fixed set of external
// worker processes:
// procwarden 是监管一组固定外部工作进程的节点守护进程：
// - Launches every enabled worker at startup / 启动时拉起所有启用的工作进程
// - Restarts crashed workers with linear backoff / 使用线性退避重启崩溃的工作进程
// - Streams worker stdout/stderr into the daemon log / 将工作进程的标准输出/错误流入守护进程日志
// - Stops all workers gracefully on shutdown / 关闭时优雅地停止所有工作进程
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/procwarden/procwarden/internal/config"
	"github.com/procwarden/procwarden/internal/event"
	"github.com/procwarden/procwarden/internal/logging"
	"github.com/procwarden/procwarden/internal/registry"
	"github.com/procwarden/procwarden/internal/retry"
	"github.com/procwarden/procwarden/internal/supervisor"
)

// Version information, set at build time
// 版本信息，在构建时设置
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Daemon wires the configuration, logger and supervisor together.
// Daemon 将配置、日志器和监管器组装在一起。
type Daemon struct {
	// config holds the daemon configuration
	// config 保存守护进程配置
	config *config.Config

	// logger is the structured logger shared by all components
	// logger 是所有组件共享的结构化日志器
	logger *zap.Logger

	// supervisor owns the worker lifecycles
	// supervisor 拥有工作进程的生命周期
	supervisor *supervisor.Supervisor

	// eventsDone is closed when the event loop drains
	// eventsDone 在事件循环排空后关闭
	eventsDone chan struct{}

	// cancelSub unsubscribes the event loop from the notifier
	// cancelSub 将事件循环从通知器取消订阅
	cancelSub func()

	// shutdownOnce guarantees Shutdown runs a single time
	// shutdownOnce 保证 Shutdown 只运行一次
	shutdownOnce sync.Once
}

// NewDaemon creates a Daemon from validated configuration.
// NewDaemon 从已验证的配置创建 Daemon。
func NewDaemon(cfg *config.Config, logger *zap.Logger) (*Daemon, error) {
	// Build the worker registry / 构建工作进程注册表
	reg, err := registry.New(cfg.Definitions())
	if err != nil {
		return nil, fmt.Errorf("failed to build worker registry: %w", err)
	}

	// Build the supervisor / 构建监管器
	sup := supervisor.New(reg, logger)
	sup.SetRetryPolicy(retry.Policy{
		BaseDelay:   cfg.Supervisor.BaseDelay,
		MaxAttempts: cfg.Supervisor.MaxAttempts,
	})
	sup.SetGracePeriod(cfg.Supervisor.GracePeriod)

	return &Daemon{
		config:     cfg,
		logger:     logger,
		supervisor: sup,
		eventsDone: make(chan struct{}),
	}, nil
}

// Run launches the workers and blocks until the supervisor is shut down.
// Run 拉起工作进程并阻塞，直到监管器被关闭。
func (d *Daemon) Run(ctx context.Context) error {
	fmt.Println("========================================")
	fmt.Println("  procwarden starting...")
	fmt.Println("  procwarden 正在启动...")
	fmt.Println("========================================")
	fmt.Printf("Version: %s, Commit: %s, Build: %s\n", Version, GitCommit, BuildTime)
	fmt.Printf("Workers: %d configured\n", len(d.config.Workers))
	fmt.Printf("Restart Policy: base delay %v, max attempts %d\n",
		d.config.Supervisor.BaseDelay, d.config.Supervisor.MaxAttempts)
	fmt.Printf("Grace Period: %v\n", d.config.Supervisor.GracePeriod)
	fmt.Printf("Log Level: %s\n", d.config.Log.Level)

	// Subscribe before launching so no lifecycle event is missed
	// 在拉起之前订阅，以免遗漏生命周期事件
	events, cancel := d.supervisor.Notifier().Subscribe(event.DefaultSubscriberBuffer)
	d.cancelSub = cancel
	go d.runEventLoop(events)

	// Launch all enabled workers concurrently
	// 并发拉起所有启用的工作进程
	fmt.Println("[1/2] Launching workers... / 拉起工作进程...")
	if err := d.supervisor.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to launch workers: %w", err)
	}

	fmt.Println("[2/2] Supervision active / 监管已激活")
	fmt.Println("========================================")
	fmt.Println("  procwarden started successfully!")
	fmt.Println("  procwarden 启动成功！")
	fmt.Println("========================================")

	// Block until shutdown closes the notifier and the loop drains
	// 阻塞直到关闭流程关闭通知器且事件循环排空
	<-d.eventsDone

	return nil
}

// runEventLoop surfaces terminal lifecycle events at warning level.
// runEventLoop 以警告级别暴露终态生命周期事件。
//
// Routine transitions are already logged by the supervisor; this loop
// exists so an operator scanning warnings sees workers that gave up.
// 常规状态转换已由监管器记录；此循环的目的是让巡检警告的
// 运维人员能看到已放弃重启的工作进程。
func (d *Daemon) runEventLoop(events <-chan event.Event) {
	defer close(d.eventsDone)

	for ev := range events {
		if ev.Kind == event.KindRetriesExhausted {
			d.logger.Warn("worker gave up, manual reset required",
				zap.String("worker", ev.WorkerID),
				zap.String("event_id", ev.ID),
			)
		}
	}
}

// Shutdown stops all workers exactly once.
// Shutdown 恰好一次地停止所有工作进程。
func (d *Daemon) Shutdown() {
	d.shutdownOnce.Do(func() {
		fmt.Println("========================================")
		fmt.Println("  Shutting down procwarden...")
		fmt.Println("  正在关闭 procwarden...")
		fmt.Println("========================================")

		if err := d.supervisor.Shutdown(); err != nil {
			d.logger.Error("shutdown finished with errors", zap.Error(err))
		}

		if d.cancelSub != nil {
			d.cancelSub()
		}

		fmt.Println("========================================")
		fmt.Println("  procwarden shutdown complete")
		fmt.Println("  procwarden 关闭完成")
		fmt.Println("========================================")
	})
}

// dumpStatus logs a status snapshot of every registered worker.
// dumpStatus 记录每个已注册工作进程的状态快照。
func (d *Daemon) dumpStatus() {
	for _, st := range d.supervisor.Status() {
		d.logger.Info("worker status",
			zap.String("worker", st.ID),
			zap.String("state", string(st.State)),
			zap.Int("pid", st.PID),
			zap.Duration("uptime", st.Uptime),
			zap.Int("retries", st.RetryCount),
		)
	}
}

// rootCmd is the root command for the procwarden CLI
// rootCmd 是 procwarden CLI 的根命令
var rootCmd = &cobra.Command{
	Use:   "procwarden",
	Short: "procwarden - supervisor daemon for external worker processes",
	Long: `procwarden is a daemon that supervises a fixed set of worker processes.
procwarden 是监管一组固定工作进程的守护进程。

It reads worker definitions from a YAML file and:
它从 YAML 文件读取工作进程定义，并：
- Launches every enabled worker at startup / 启动时拉起所有启用的工作进程
- Restarts crashed workers with linear backoff / 使用线性退避重启崩溃的工作进程
- Streams worker output into the daemon log / 将工作进程输出流入守护进程日志
- Stops all workers gracefully on SIGINT/SIGTERM / 收到 SIGINT/SIGTERM 时优雅停止所有工作进程`,
	RunE: runDaemon,
}

// versionCmd shows version information
// versionCmd 显示版本信息
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information / 打印版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("procwarden\n")
		fmt.Printf("  Version:    %s\n", Version)
		fmt.Printf("  Git Commit: %s\n", GitCommit)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		fmt.Printf("  Go Version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

// configFile is the path to the configuration file
// configFile 是配置文件的路径
var configFile string

func init() {
	// Add flags to root command
	// 向根命令添加标志
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default: /etc/procwarden/config.yaml)")

	// Add subcommands
	// 添加子命令
	rootCmd.AddCommand(versionCmd)
}

// runDaemon is the main entry point for the daemon.
// runDaemon 是守护进程的主入口点。
func runDaemon(cmd *cobra.Command, args []string) error {
	// Load configuration
	// 加载配置
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Validate configuration
	// 验证配置
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Build the logger
	// 构建日志器
	logger, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	})
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("configuration loaded", zap.String("config", cfg.String()))

	// Create the daemon
	// 创建守护进程
	daemon, err := NewDaemon(cfg, logger)
	if err != nil {
		return err
	}

	// Setup signal handling for graceful shutdown
	// 设置信号处理以实现优雅关闭
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Run daemon in goroutine
	// 在 goroutine 中运行守护进程
	errChan := make(chan error, 1)
	go func() {
		errChan <- daemon.Run(context.Background())
	}()

	// Wait for signals or a startup error
	// 等待信号或启动错误
	for {
		select {
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				// SIGHUP dumps worker status without stopping anything
				// SIGHUP 转储工作进程状态而不停止任何东西
				daemon.dumpStatus()
				continue
			}
			fmt.Printf("\nReceived signal: %v / 收到信号：%v\n", sig, sig)
			daemon.Shutdown()
			<-errChan
			return nil
		case err := <-errChan:
			if err != nil {
				daemon.Shutdown()
				return err
			}
			return nil
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
