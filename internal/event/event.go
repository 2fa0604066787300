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

// Package event defines worker lifecycle events and their notifier.
// event 包定义工作进程生命周期事件及其通知器。
//
// The event kinds form a closed set so consumers can switch over every
// variant instead of string-matching.
// 事件类型构成封闭集合，消费者可以对每个变体进行 switch 处理，而不是字符串匹配。
package event

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies one of the closed set of lifecycle event variants.
// Kind 标识生命周期事件封闭集合中的一个变体。
type Kind string

const (
	// KindWorkerStarted - the worker reached a live process id
	// KindWorkerStarted - 工作进程获得了存活的进程 ID
	KindWorkerStarted Kind = "worker_started"

	// KindWorkerSpawnFailed - the executable could not be started
	// KindWorkerSpawnFailed - 可执行文件无法启动
	KindWorkerSpawnFailed Kind = "worker_spawn_failed"

	// KindWorkerCrashed - the process exited unexpectedly with a non-zero
	// code or was killed by a signal
	// KindWorkerCrashed - 进程以非零码意外退出或被信号杀死
	KindWorkerCrashed Kind = "worker_crashed"

	// KindWorkerExited - the process exited; emitted for clean voluntary
	// exits and for exits requested by the supervisor
	// KindWorkerExited - 进程退出；用于自愿的干净退出和监管器请求的退出
	KindWorkerExited Kind = "worker_exited"

	// KindRetriesExhausted - the retry policy refused further relaunches;
	// terminal for the worker until an external reset
	// KindRetriesExhausted - 重试策略拒绝继续重启；在外部重置前对该工作进程是终态
	KindRetriesExhausted Kind = "retries_exhausted"
)

// Event is one worker lifecycle transition.
// Event 是一次工作进程生命周期转换。
//
// Fields beyond WorkerID are populated per kind: ExitCode/Signal for crashed
// and exited events, Err for spawn failures.
// WorkerID 之外的字段按类型填充：崩溃和退出事件填充 ExitCode/Signal，启动失败填充 Err。
type Event struct {
	// ID is a unique identifier for de-duplication by consumers
	// ID 是供消费者去重的唯一标识符
	ID string `json:"id"`

	// Kind is the event variant
	// Kind 是事件变体
	Kind Kind `json:"kind"`

	// WorkerID is the definition id the event belongs to
	// WorkerID 是事件所属的定义 id
	WorkerID string `json:"worker_id"`

	// PID is the OS process id, when one existed
	// PID 是操作系统进程 ID（存在时）
	PID int `json:"pid,omitempty"`

	// ExitCode is the process exit code, when the process exited by itself
	// ExitCode 是进程自行退出时的退出码
	ExitCode int `json:"exit_code,omitempty"`

	// Signal names the signal that killed the process, when there was one
	// Signal 是杀死进程的信号名称（存在时）
	Signal string `json:"signal,omitempty"`

	// Err carries the spawn error for KindWorkerSpawnFailed
	// Err 携带 KindWorkerSpawnFailed 的启动错误
	Err error `json:"-"`

	// Timestamp is when the transition occurred
	// Timestamp 是转换发生的时间
	Timestamp time.Time `json:"timestamp"`
}

// New builds an event of the given kind for a worker, stamped with a fresh
// uuid and the current time.
// New 为工作进程构建给定类型的事件，附带新的 uuid 和当前时间。
func New(kind Kind, workerID string) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		WorkerID:  workerID,
		Timestamp: time.Now(),
	}
}
