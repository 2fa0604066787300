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
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// StopWorker requests graceful termination of one worker. It is a no-op for
// a worker that is not running, and it cancels a pending relaunch so the
// worker stays stopped.
// StopWorker 请求优雅终止一个工作进程。对未运行的工作进程是空操作，并会取消
// 待执行的重启，使其保持停止状态。
//
// A worker's own failure never propagates out of this call; only an unknown
// id is reported as an error.
// 工作进程自身的失败绝不会从此调用传播出去；只有未知的 id 会作为错误报告。
func (s *Supervisor) StopWorker(id string) error {
	if _, known := s.registry.Get(id); !known {
		return fmt.Errorf("%w: %q", ErrUnknownWorker, id)
	}

	s.mu.RLock()
	h, ok := s.handles[id]
	s.mu.RUnlock()
	if !ok {
		return nil // Nothing is running / 没有在运行的进程
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Cancel a pending relaunch so stop wins over retry
	// 取消待执行的重启，使停止优先于重试
	if h.retryTimer != nil {
		h.retryTimer.Stop()
		h.retryTimer = nil
	}

	if h.state == StateStarting || h.state == StateRunning {
		h.state = StateStopping
		// With the spawn call still in flight there is no process to signal
		// yet; adoptLaunch sees the stopping state once the spawn returns and
		// terminates the fresh process.
		// 生成调用仍在进行时尚无可发信号的进程；生成返回后 adoptLaunch 会看到
		// stopping 状态并终止新进程。
		if h.launch != nil {
			if err := h.launch.Terminate(); err != nil {
				s.logger.Warn("graceful terminate failed / 优雅终止失败",
					zap.String("worker", id), zap.Error(err))
			}
		}
	}
	return nil
}

// ResetWorker revives a Failed (or stopped) worker: it clears the retry
// counter and relaunches the process. This is the only path out of the
// Failed terminal state.
// ResetWorker 复活一个 Failed（或已停止）的工作进程：清除重试计数并重新启动
// 进程。这是离开 Failed 终态的唯一途径。
func (s *Supervisor) ResetWorker(id string) error {
	def, ok := s.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownWorker, id)
	}
	if !def.Enabled {
		return fmt.Errorf("%w: %q", ErrWorkerDisabled, id)
	}

	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		return ErrShuttingDown
	}
	h, exists := s.handles[id]
	s.mu.Unlock()

	if exists {
		h.mu.Lock()
		switch h.state {
		case StateStarting, StateRunning, StateStopping:
			h.mu.Unlock()
			return fmt.Errorf("%w: %q", ErrWorkerActive, id)
		}
		if h.retryTimer != nil {
			h.retryTimer.Stop()
			h.retryTimer = nil
		}
		h.retryCount = 0
		h.state = StateNotStarted
		h.mu.Unlock()
	}

	s.logger.Info("resetting worker / 重置工作进程", zap.String("worker", id))
	s.launchWorker(def)
	return nil
}

// Shutdown terminates all workers: pending relaunches are cancelled, every
// live process gets a concurrent graceful-terminate request, then one grace
// period is shared by all of them before stragglers are force-killed.
// Shutdown 终止所有工作进程：取消待执行的重启，对每个存活进程并发发出优雅
// 终止请求，所有进程共享一个宽限时间，之后强制杀死仍未退出者。
//
// Shutdown is idempotent; a second call is an immediate no-op. It returns
// only after every worker has exited or been force-killed. The only hard
// error it reports is a force-kill signal that could not be delivered; that
// error never prevents shutdown from completing for the remaining workers.
// Shutdown 是幂等的；第二次调用立即返回且无操作。它仅在所有工作进程退出或被
// 强制杀死后返回。唯一上报的硬错误是强制杀死信号无法投递；该错误绝不会阻止
// 其余工作进程完成关闭。
func (s *Supervisor) Shutdown() error {
	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		return nil
	}
	s.shuttingDown = true
	grace := s.grace
	s.mu.Unlock()

	// Every spawn call that slipped past the flag flip must finish before
	// the handle set is read, so no process can land outside the wait set.
	// 所有越过标志翻转的生成调用都必须在读取句柄集合之前完成，任何进程都
	// 不可能落在等待集合之外。
	s.launching.Wait()

	s.mu.Lock()
	all := make([]*handle, 0, len(s.handles))
	for _, h := range s.handles {
		all = append(all, h)
	}
	s.mu.Unlock()

	s.logger.Info("shutdown requested / 请求关闭",
		zap.Int("handles", len(all)),
		zap.Duration("grace_period", grace))

	// Phase 1: cancel relaunch timers, request graceful stops concurrently
	// 阶段 1：取消重启定时器，并发请求优雅停止
	type target struct {
		h    *handle
		done chan struct{}
	}
	var live []target
	var g errgroup.Group
	for _, h := range all {
		h.mu.Lock()
		if h.retryTimer != nil {
			h.retryTimer.Stop()
			h.retryTimer = nil
		}
		switch h.state {
		case StateStarting, StateRunning:
			h.state = StateStopping
			l := h.launch
			done := h.procDone
			h.mu.Unlock()
			live = append(live, target{h: h, done: done})
			if l != nil {
				g.Go(func() error {
					if err := l.Terminate(); err != nil {
						s.logger.Warn("graceful terminate failed / 优雅终止失败",
							zap.String("worker", h.definitionID), zap.Error(err))
					}
					return nil
				})
			}
		case StateStopping:
			// A racing StopWorker got there first; just wait for the exit
			// 竞争的 StopWorker 先到了；只需等待退出
			done := h.procDone
			h.mu.Unlock()
			live = append(live, target{h: h, done: done})
		default:
			h.mu.Unlock()
		}
	}
	_ = g.Wait()

	// Phase 2: one grace period shared by every worker; it fires exactly
	// once per shutdown and is never restarted by late events
	// 阶段 2：所有工作进程共享一个宽限时间；每次关闭只触发一次，不会被后来的
	// 事件重新启动
	graceExpired := make(chan struct{})
	graceTimer := time.AfterFunc(grace, func() { close(graceExpired) })
	defer graceTimer.Stop()

	var errs error
	for _, t := range live {
		select {
		case <-t.done:
			continue
		case <-graceExpired:
		}

		t.h.mu.Lock()
		l := t.h.launch
		t.h.mu.Unlock()
		if l == nil {
			// Exited between the deadline firing and now
			// 在宽限到期与此刻之间已经退出
			<-t.done
			continue
		}

		s.logger.Warn("grace period elapsed, force killing worker / 宽限时间已过，强制杀死工作进程",
			zap.String("worker", t.h.definitionID))
		if err := l.Kill(); err != nil {
			errs = multierr.Append(errs,
				fmt.Errorf("force kill worker %q: %w", t.h.definitionID, err))
			continue
		}
		<-t.done
	}

	// Phase 3: drop the handle map; every definition now reads as stopped
	// 阶段 3：清空句柄映射；所有定义此后均报告为 stopped
	s.mu.Lock()
	s.handles = make(map[string]*handle)
	s.mu.Unlock()

	s.notifier.Close()
	s.logger.Info("shutdown complete / 关闭完成", zap.Int("stopped", len(live)))
	return errs
}
