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

// Package launcher wraps OS process creation for worker definitions.
// launcher 包封装工作进程定义的操作系统进程创建。
//
// The launcher is a pure "spawn and observe" primitive:
// launcher 是纯粹的"生成并观察"原语：
// - Start spawns the process and wires up output streams / Start 生成进程并接好输出流
// - Stdout/Stderr deliver output lines asynchronously / Stdout/Stderr 异步投递输出行
// - Done delivers exactly one termination status / Done 恰好投递一次终止状态
//
// It never retries and knows nothing about restart policy; that belongs to
// the supervisor.
// 它从不重试，也不了解重启策略；那是监管器的职责。
package launcher

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/procwarden/procwarden/internal/registry"
)

// ErrSpawn indicates the executable could not be started at all
// ErrSpawn 表示可执行文件完全无法启动
var ErrSpawn = errors.New("worker failed to spawn")

// maxLineSize bounds a single captured output line (1 MiB)
// maxLineSize 限制单条捕获输出行的大小（1 MiB）
const maxLineSize = 1024 * 1024

// ExitStatus describes how a spawned process terminated.
// ExitStatus 描述生成的进程如何终止。
//
// Exactly one of the three shapes occurs:
// 三种形态中恰好出现一种：
// - spawn failure: Err wraps ErrSpawn, Code is -1 / 启动失败：Err 包装 ErrSpawn，Code 为 -1
// - killed by signal: Signal is set, Code is -1 / 被信号杀死：Signal 已设置，Code 为 -1
// - normal exit: Code holds the exit code / 正常退出：Code 保存退出码
type ExitStatus struct {
	// Code is the process exit code, -1 when unavailable
	// Code 是进程退出码，不可用时为 -1
	Code int

	// Signal names the terminating signal, empty when the process exited
	// Signal 是终止信号的名称，进程自行退出时为空
	Signal string

	// Err is the spawn (or wait) error, nil for any real termination
	// Err 是启动（或等待）错误，任何真实终止时为 nil
	Err error
}

// Clean reports whether the process exited voluntarily with code 0.
// Clean 报告进程是否以退出码 0 自愿退出。
func (s ExitStatus) Clean() bool {
	return s.Err == nil && s.Signal == "" && s.Code == 0
}

// Launch is the live observation handle for one spawned process.
// Launch 是一个已生成进程的运行时观察句柄。
type Launch struct {
	// PID is the OS process id; 0 when the spawn itself failed
	// PID 是操作系统进程 ID；启动本身失败时为 0
	PID int

	// Stdout delivers standard-output lines; closed on stream end
	// Stdout 投递标准输出行；流结束时关闭
	Stdout <-chan string

	// Stderr delivers standard-error lines; closed on stream end
	// Stderr 投递标准错误行；流结束时关闭
	Stderr <-chan string

	// Done delivers exactly one ExitStatus, then is closed
	// Done 恰好投递一次 ExitStatus，随后关闭
	Done <-chan ExitStatus

	cmd *exec.Cmd
}

// Launcher spawns worker processes. It is stateless and safe for concurrent
// use.
// Launcher 生成工作进程。它是无状态的，可并发使用。
type Launcher struct{}

// New creates a Launcher.
// New 创建一个 Launcher。
func New() *Launcher {
	return &Launcher{}
}

// Start spawns the process for a worker definition.
// Start 为工作进程定义生成进程。
//
// Start never returns an error: a failure to spawn (missing binary,
// permission denied) is reported as an ErrSpawn-wrapped status on Done, so
// callers have a single failure path for both spawn errors and crashes.
// Start 从不返回错误：启动失败（二进制缺失、权限不足）作为包装了 ErrSpawn 的状态
// 通过 Done 上报，这样调用者对启动错误和崩溃只有一条失败路径。
func (l *Launcher) Start(def registry.Definition) *Launch {
	stdout := make(chan string, 16)
	stderr := make(chan string, 16)
	done := make(chan ExitStatus, 1)

	launch := &Launch{
		Stdout: stdout,
		Stderr: stderr,
		Done:   done,
	}

	cmd := exec.Command(def.Executable, def.Args...)
	cmd.Env = buildEnv(def.Env)

	// Children live in their own process group so a signal aimed at one
	// worker never leaks to the supervisor or its siblings
	// 子进程位于独立的进程组中，发给单个工作进程的信号不会泄漏到监管器或其兄弟进程
	setProcGroupAttr(cmd)

	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		failSpawn(def.ID, err, stdout, stderr, done)
		return launch
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		failSpawn(def.ID, err, stdout, stderr, done)
		return launch
	}

	if err := cmd.Start(); err != nil {
		failSpawn(def.ID, err, stdout, stderr, done)
		return launch
	}

	launch.cmd = cmd
	launch.PID = cmd.Process.Pid

	// Drain both streams before Wait so the pipes cannot back up
	// 在 Wait 之前排空两个流，避免管道阻塞
	outDone := make(chan struct{})
	errDone := make(chan struct{})
	go scanLines(outPipe, stdout, outDone)
	go scanLines(errPipe, stderr, errDone)

	go func() {
		<-outDone
		<-errDone
		waitErr := cmd.Wait()
		done <- exitStatusFromWait(waitErr)
		close(done)
	}()

	return launch
}

// Terminate asks the process to stop gracefully (SIGTERM to its process
// group on Unix).
// Terminate 请求进程优雅停止（Unix 上向其进程组发送 SIGTERM）。
func (l *Launch) Terminate() error {
	if l.cmd == nil || l.cmd.Process == nil {
		return nil
	}
	return signalProcess(l.cmd.Process, syscall.SIGTERM)
}

// Kill force-terminates the process (SIGKILL to its process group on Unix).
// Kill 强制终止进程（Unix 上向其进程组发送 SIGKILL）。
func (l *Launch) Kill() error {
	if l.cmd == nil || l.cmd.Process == nil {
		return nil
	}
	return signalProcess(l.cmd.Process, syscall.SIGKILL)
}

// failSpawn reports a spawn failure on the termination channel and closes
// all channels so observers terminate.
// failSpawn 通过终止通道上报启动失败，并关闭所有通道使观察者退出。
func failSpawn(workerID string, err error, stdout, stderr chan string, done chan ExitStatus) {
	close(stdout)
	close(stderr)
	done <- ExitStatus{
		Code: -1,
		Err:  fmt.Errorf("%w: worker %q: %v", ErrSpawn, workerID, err),
	}
	close(done)
}

// scanLines copies one output stream into a line channel.
// scanLines 将一个输出流复制到行通道。
func scanLines(r io.Reader, lines chan<- string, streamDone chan<- struct{}) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
	close(lines)
	close(streamDone)
}

// exitStatusFromWait converts the result of exec.Cmd.Wait into an ExitStatus.
// exitStatusFromWait 将 exec.Cmd.Wait 的结果转换为 ExitStatus。
func exitStatusFromWait(waitErr error) ExitStatus {
	if waitErr == nil {
		return ExitStatus{Code: 0}
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		status := ExitStatus{Code: exitErr.ExitCode()}
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			status.Signal = ws.Signal().String()
		}
		return status
	}

	// Wait itself failed (e.g. I/O error on the pipes)
	// Wait 本身失败（例如管道 I/O 错误）
	return ExitStatus{Code: -1, Err: waitErr}
}

// buildEnv layers the definition's overrides over the host environment.
// buildEnv 将定义中的覆盖项叠加在宿主环境变量之上。
func buildEnv(overrides map[string]string) []string {
	env := os.Environ()
	for k, v := range overrides {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
