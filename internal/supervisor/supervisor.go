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

// Package supervisor orchestrates the lifecycle of all worker processes.
// supervisor 包编排所有工作进程的生命周期。
//
// This package provides:
// 此包提供：
// - Launching every enabled worker definition / 启动每个已启用的工作进程定义
// - Crash detection and bounded restart / 崩溃检测和有界重启
// - Point-in-time status snapshots / 时间点状态快照
// - Graceful then forceful shutdown / 先优雅后强制的关闭
//
// The supervisor is an explicit instance owned by the host application;
// there is no package-level singleton.
// 监管器是由宿主应用持有的显式实例；没有包级单例。
package supervisor

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/procwarden/procwarden/internal/event"
	"github.com/procwarden/procwarden/internal/launcher"
	"github.com/procwarden/procwarden/internal/registry"
	"github.com/procwarden/procwarden/internal/retry"
)

// Common errors for supervisor operations
// 监管器操作的常见错误
var (
	// ErrAlreadyInitialized indicates Initialize was called twice
	// ErrAlreadyInitialized 表示 Initialize 被调用了两次
	ErrAlreadyInitialized = errors.New("supervisor already initialized")

	// ErrUnknownWorker indicates the worker id is not in the registry
	// ErrUnknownWorker 表示工作进程 id 不在注册表中
	ErrUnknownWorker = errors.New("unknown worker")

	// ErrWorkerDisabled indicates the definition is disabled
	// ErrWorkerDisabled 表示该定义已被禁用
	ErrWorkerDisabled = errors.New("worker is disabled")

	// ErrWorkerActive indicates the worker is live and cannot be reset
	// ErrWorkerActive 表示工作进程处于活动状态，无法重置
	ErrWorkerActive = errors.New("worker is active")

	// ErrShuttingDown indicates the supervisor is shutting down
	// ErrShuttingDown 表示监管器正在关闭
	ErrShuttingDown = errors.New("supervisor is shutting down")
)

// DefaultGracePeriod is the time workers get to exit voluntarily during
// shutdown before they are force-killed
// DefaultGracePeriod 是关闭期间工作进程被强制杀死前自愿退出的时间窗口
const DefaultGracePeriod = 2 * time.Second

// State is the lifecycle state of one worker handle.
// State 是单个工作进程句柄的生命周期状态。
type State string

const (
	// StateNotStarted - handle exists but no launch was attempted yet
	// StateNotStarted - 句柄已存在但尚未尝试启动
	StateNotStarted State = "not_started"

	// StateStarting - the spawn call is in flight or just returned
	// StateStarting - 生成调用正在进行或刚刚返回
	StateStarting State = "starting"

	// StateRunning - the process has a live process id
	// StateRunning - 进程拥有存活的进程 ID
	StateRunning State = "running"

	// StateStopping - a termination request was sent
	// StateStopping - 已发送终止请求
	StateStopping State = "stopping"

	// StateStopped - the process exited; also the state of a pending retry
	// StateStopped - 进程已退出；等待重试期间也处于此状态
	StateStopped State = "stopped"

	// StateFailed - retries are exhausted; terminal until an external reset
	// StateFailed - 重试已耗尽；在外部重置前是终态
	StateFailed State = "failed"
)

// handle is the mutable runtime record for one worker.
// handle 是单个工作进程的可变运行时记录。
//
// Every mutation happens under mu, which serializes concurrent events for
// the same worker (e.g. a crash racing a stop request) into a defined order.
// 所有修改都在 mu 保护下进行，使同一工作进程的并发事件（例如崩溃与停止请求竞争）
// 以确定的顺序被应用。
type handle struct {
	mu sync.Mutex

	// definitionID is the back-reference into the registry
	// definitionID 是指向注册表的反向引用
	definitionID string

	state          State
	pid            int
	startedAt      time.Time
	retryCount     int
	lastExitCode   int
	lastExitSignal string

	// launch is the live observation handle, nil when no process exists
	// launch 是运行时观察句柄，无进程时为 nil
	launch *launcher.Launch

	// procDone is closed by the watch goroutine once the current process
	// has fully terminated and the handle was updated
	// procDone 在当前进程完全终止且句柄已更新后由 watch goroutine 关闭
	procDone chan struct{}

	// retryTimer is the pending relaunch timer, nil when none is scheduled
	// retryTimer 是待执行的重启定时器，未调度时为 nil
	retryTimer *time.Timer
}

// WorkerStatus is one entry of the point-in-time status snapshot.
// WorkerStatus 是时间点状态快照中的一条记录。
type WorkerStatus struct {
	ID              string        `json:"id"`
	DisplayName     string        `json:"display_name"`
	Enabled         bool          `json:"enabled"`
	State           State         `json:"state"`
	PID             int           `json:"pid,omitempty"`
	StartedAt       time.Time     `json:"started_at,omitempty"`
	Uptime          time.Duration `json:"uptime,omitempty"`
	RetryCount      int           `json:"retry_count"`
	LastExitCode    int           `json:"last_exit_code"`
	LastExitSignal  string        `json:"last_exit_signal,omitempty"`
	CapabilityCount int           `json:"capability_count"`
	Capabilities    []string      `json:"capabilities,omitempty"`
}

// Supervisor owns the registry and the live handle map and drives every
// state transition.
// Supervisor 持有注册表和运行时句柄映射，并驱动所有状态转换。
type Supervisor struct {
	registry *registry.Registry
	launcher *launcher.Launcher
	policy   retry.Policy
	grace    time.Duration
	notifier *event.Notifier
	logger   *zap.Logger

	// mu protects the handle map and the lifecycle flags. Lock order:
	// never acquire mu while holding a handle's mu.
	// mu 保护句柄映射和生命周期标志。锁顺序：持有句柄锁时绝不获取 mu。
	mu           sync.RWMutex
	handles      map[string]*handle
	initialized  bool
	shuttingDown bool

	// launching counts in-flight spawn calls. Entries are added under mu
	// after the shutdown check, so once Shutdown sets the flag and waits
	// here, every process spawned before the flag flipped is guaranteed to
	// be in its wait set.
	// launching 统计进行中的生成调用。条目在关闭检查之后、持有 mu 时加入，
	// 因此 Shutdown 设置标志并在此等待后，所有在标志翻转前生成的进程都必然
	// 位于其等待集合中。
	launching sync.WaitGroup
}

// New creates a supervisor over the given registry. The logger receives
// every worker output line and lifecycle event as structured records.
// New 基于给定注册表创建监管器。logger 以结构化记录接收每条工作进程输出行
// 和每个生命周期事件。
func New(reg *registry.Registry, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		registry: reg,
		launcher: launcher.New(),
		policy:   retry.Default(),
		grace:    DefaultGracePeriod,
		notifier: event.NewNotifier(),
		logger:   logger,
		handles:  make(map[string]*handle),
	}
}

// SetRetryPolicy replaces the restart policy. Call before Initialize.
// SetRetryPolicy 替换重启策略。须在 Initialize 之前调用。
func (s *Supervisor) SetRetryPolicy(p retry.Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = p
}

// SetGracePeriod replaces the shutdown grace period. Call before Initialize.
// SetGracePeriod 替换关闭宽限时间。须在 Initialize 之前调用。
func (s *Supervisor) SetGracePeriod(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grace = d
}

// Notifier exposes the lifecycle event notifier for subscription.
// Notifier 暴露生命周期事件通知器以供订阅。
func (s *Supervisor) Notifier() *event.Notifier {
	return s.notifier
}

// Status returns a consistent snapshot for every known definition, enabled
// or not. A definition without a live handle (never launched, clean exit,
// shutdown) is reported as stopped.
// Status 为每个已知定义返回一致的快照，无论是否启用。没有运行时句柄的定义
//（从未拉起、干净退出、已关闭）报告为 stopped。
func (s *Supervisor) Status() []WorkerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defs := s.registry.All()
	out := make([]WorkerStatus, 0, len(defs))
	for _, def := range defs {
		st := WorkerStatus{
			ID:              def.ID,
			DisplayName:     def.DisplayName,
			Enabled:         def.Enabled,
			State:           StateStopped,
			CapabilityCount: len(def.Capabilities),
			Capabilities:    def.Capabilities,
		}

		if h, ok := s.handles[def.ID]; ok {
			h.mu.Lock()
			st.State = h.state
			st.PID = h.pid
			st.StartedAt = h.startedAt
			st.RetryCount = h.retryCount
			st.LastExitCode = h.lastExitCode
			st.LastExitSignal = h.lastExitSignal
			if h.state == StateRunning && !h.startedAt.IsZero() {
				st.Uptime = time.Since(h.startedAt)
			}
			h.mu.Unlock()
		}

		out = append(out, st)
	}
	return out
}
