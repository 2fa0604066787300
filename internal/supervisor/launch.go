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

package supervisor

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/procwarden/procwarden/internal/event"
	"github.com/procwarden/procwarden/internal/launcher"
	"github.com/procwarden/procwarden/internal/registry"
	"github.com/procwarden/procwarden/internal/retry"
)

// Initialize launches every enabled worker definition.
// Initialize 启动每个已启用的工作进程定义。
//
// Spawns run as concurrent tasks joined at the end: Initialize returns once
// every spawn call has completed, without waiting for any worker to become
// healthy. A single worker's failure is recorded on its handle and surfaced
// via events; it never propagates out of Initialize.
// 生成调用作为并发任务执行并在最后汇合：Initialize 在所有生成调用完成后返回，
// 不等待任何工作进程变为健康。单个工作进程的失败记录在其句柄上并通过事件上报；
// 绝不会从 Initialize 传播出去。
func (s *Supervisor) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		return ErrShuttingDown
	}
	if s.initialized {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	s.initialized = true
	s.mu.Unlock()

	enabled := s.registry.Enabled()
	s.logger.Info("initializing workers / 初始化工作进程",
		zap.Int("enabled", len(enabled)),
		zap.Int("known", s.registry.Len()))

	var g errgroup.Group
	for _, def := range enabled {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			s.launchWorker(def)
			return nil
		})
	}
	// Per-worker failures live in handles and events, never in this error
	// 单个工作进程的失败存在于句柄和事件中，绝不在此错误中
	_ = g.Wait()

	return ctx.Err()
}

// launchWorker spawns a process for one definition and begins observing it.
// Returns once the spawn call itself has completed.
// launchWorker 为一个定义生成进程并开始观察。生成调用完成后即返回。
func (s *Supervisor) launchWorker(def registry.Definition) {
	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		return
	}
	s.launching.Add(1)
	defer s.launching.Done()
	h, ok := s.handles[def.ID]
	if !ok {
		h = &handle{definitionID: def.ID, state: StateNotStarted}
		s.handles[def.ID] = h
	}
	s.mu.Unlock()

	h.mu.Lock()
	switch h.state {
	case StateStarting, StateRunning, StateStopping:
		// Already live; never spawn a duplicate process for one handle
		// 已在运行；绝不为一个句柄生成重复进程
		h.mu.Unlock()
		return
	}
	h.state = StateStarting
	procDone := make(chan struct{})
	h.procDone = procDone
	h.mu.Unlock()

	launch := s.launcher.Start(def)
	s.adoptLaunch(def, h, launch)

	go s.pumpStream(def.ID, "stdout", launch.Stdout)
	go s.pumpStream(def.ID, "stderr", launch.Stderr)
	go s.watch(def, h, launch, procDone)
}

// adoptLaunch records a completed spawn call on the handle. The handle state
// is re-read under its own lock: a stop request that landed while the spawn
// call was in flight has already moved the handle to stopping, and the fresh
// process must honor it instead of entering running.
// adoptLaunch 将已完成的生成调用记录到句柄上。句柄状态在其自身锁下重新读取：
// 在生成调用进行期间到达的停止请求已将句柄置于 stopping 状态，新进程必须服从
// 该请求而不是进入 running。
func (s *Supervisor) adoptLaunch(def registry.Definition, h *handle, launch *launcher.Launch) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.launch = launch
	if launch.PID <= 0 {
		return
	}
	h.pid = launch.PID
	h.startedAt = time.Now()

	if h.state == StateStopping {
		if err := launch.Terminate(); err != nil {
			s.logger.Warn("failed to terminate worker spawned during stop / 终止停止期间生成的工作进程失败",
				zap.String("worker", def.ID), zap.Error(err))
		}
		return
	}

	h.state = StateRunning
	ev := event.New(event.KindWorkerStarted, def.ID)
	ev.PID = launch.PID
	s.emit(ev)
}

// watch consumes the termination channel of one spawned process and applies
// the resulting state transition.
// watch 消费一个已生成进程的终止通道，并应用由此产生的状态转换。
func (s *Supervisor) watch(def registry.Definition, h *handle, launch *launcher.Launch, procDone chan struct{}) {
	status := <-launch.Done

	s.mu.RLock()
	shuttingDown := s.shuttingDown
	policy := s.policy
	s.mu.RUnlock()

	h.mu.Lock()
	exitPID := h.pid
	h.pid = 0
	h.launch = nil
	h.lastExitCode = status.Code
	h.lastExitSignal = status.Signal

	removeHandle := false
	switch {
	case status.Err != nil:
		// The executable never started. The spawn error stays observable
		// even when a stop request raced it, but the stop still wins: no
		// retry is scheduled for a stopping handle.
		// 可执行文件从未启动。即使停止请求与之竞争，启动错误也保持可观测，
		// 但停止仍然获胜：不为 stopping 状态的句柄调度重试。
		ev := event.New(event.KindWorkerSpawnFailed, def.ID)
		ev.Err = status.Err
		s.emit(ev)
		if h.state == StateStopping {
			h.state = StateStopped
		} else {
			s.afterFailureLocked(def, h, policy, shuttingDown)
		}

	case h.state == StateStopping:
		// Exit was requested by StopWorker or Shutdown
		// 退出由 StopWorker 或 Shutdown 请求
		h.state = StateStopped
		ev := event.New(event.KindWorkerExited, def.ID)
		ev.PID = exitPID
		ev.ExitCode = status.Code
		ev.Signal = status.Signal
		s.emit(ev)

	case status.Clean():
		// Clean voluntary exit is intentional: no restart
		// 干净的自愿退出视为有意行为：不重启
		h.state = StateStopped
		removeHandle = true
		ev := event.New(event.KindWorkerExited, def.ID)
		ev.PID = exitPID
		s.emit(ev)

	default:
		// Unexpected termination / 意外终止
		ev := event.New(event.KindWorkerCrashed, def.ID)
		ev.PID = exitPID
		ev.ExitCode = status.Code
		ev.Signal = status.Signal
		s.emit(ev)
		s.afterFailureLocked(def, h, policy, shuttingDown)
	}
	h.mu.Unlock()

	close(procDone)

	if removeHandle {
		s.mu.Lock()
		if cur, ok := s.handles[def.ID]; ok && cur == h {
			delete(s.handles, def.ID)
		}
		s.mu.Unlock()
	}
}

// afterFailureLocked applies the retry policy after a spawn failure or
// crash. Must be called with h.mu held.
// afterFailureLocked 在启动失败或崩溃后应用重试策略。调用时必须持有 h.mu。
func (s *Supervisor) afterFailureLocked(def registry.Definition, h *handle, policy retry.Policy, shuttingDown bool) {
	if shuttingDown {
		h.state = StateStopped
		return
	}

	attempt := h.retryCount + 1
	if !policy.ShouldRetry(attempt) {
		h.state = StateFailed
		s.emit(event.New(event.KindRetriesExhausted, def.ID))
		return
	}

	h.retryCount = attempt
	delay := policy.DelayFor(attempt)
	h.state = StateStopped

	s.logger.Info("scheduling worker relaunch / 调度工作进程重启",
		zap.String("worker", def.ID),
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay))

	h.retryTimer = time.AfterFunc(delay, func() {
		h.mu.Lock()
		h.retryTimer = nil
		h.mu.Unlock()
		// launchWorker re-checks the shutdown flag, so a timer that slips
		// past cancellation can never resurrect a worker
		// launchWorker 会重新检查关闭标志，因此漏过取消的定时器绝不会复活工作进程
		s.launchWorker(def)
	})
}

// pumpStream forwards one output stream to the structured log sink.
// pumpStream 将一个输出流转发到结构化日志接收端。
func (s *Supervisor) pumpStream(workerID, stream string, lines <-chan string) {
	for line := range lines {
		s.logger.Info(line,
			zap.String("worker", workerID),
			zap.String("stream", stream))
	}
}

// emit publishes a lifecycle event and mirrors it to the log sink.
// emit 发布生命周期事件并镜像到日志接收端。
func (s *Supervisor) emit(ev event.Event) {
	s.notifier.Publish(ev)

	fields := []zap.Field{
		zap.String("worker", ev.WorkerID),
		zap.String("stream", "lifecycle"),
		zap.String("kind", string(ev.Kind)),
		zap.String("event_id", ev.ID),
	}
	if ev.PID > 0 {
		fields = append(fields, zap.Int("pid", ev.PID))
	}
	if ev.Kind == event.KindWorkerCrashed || ev.Kind == event.KindWorkerExited {
		fields = append(fields, zap.Int("exit_code", ev.ExitCode))
	}
	if ev.Signal != "" {
		fields = append(fields, zap.String("signal", ev.Signal))
	}
	if ev.Err != nil {
		fields = append(fields, zap.Error(ev.Err))
	}
	s.logger.Info("worker lifecycle event / 工作进程生命周期事件", fields...)
}
