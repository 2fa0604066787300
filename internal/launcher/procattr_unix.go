//go:build !windows
// +build !windows

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

package launcher

import (
	"os"
	"os/exec"
	"syscall"
)

// setProcGroupAttr puts the worker in its own process group on Unix systems
// setProcGroupAttr 在 Unix 系统上将工作进程放入独立的进程组
// Signals sent to the supervisor's group then never reach the workers,
// and signals aimed at a worker never hit its siblings
// 发给监管器进程组的信号不会波及工作进程，发给单个工作进程的信号也不会影响其兄弟进程
func setProcGroupAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true, // Create new process group / 创建新进程组
	}
}

// signalProcess delivers a signal to the worker's whole process group, so
// children spawned by the worker (e.g. a shell's subprocesses) cannot outlive
// it and keep its output pipes open.
// signalProcess 将信号投递给工作进程的整个进程组，使工作进程派生的子进程
//（例如 shell 的子进程）不会比它存活更久并占用其输出管道。
func signalProcess(p *os.Process, sig syscall.Signal) error {
	if err := syscall.Kill(-p.Pid, sig); err != nil {
		// The group may already be gone; fall back to the process itself
		// 进程组可能已经消失；回退到进程本身
		return p.Signal(sig)
	}
	return nil
}
