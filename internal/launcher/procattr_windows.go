//go:build windows
// +build windows

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

// setProcGroupAttr is a no-op on Windows; process groups are not used there
// setProcGroupAttr 在 Windows 上是空操作；那里不使用进程组
func setProcGroupAttr(cmd *exec.Cmd) {}

// signalProcess degrades to Kill on Windows, where only termination is
// supported.
// signalProcess 在仅支持终止的 Windows 上降级为 Kill。
func signalProcess(p *os.Process, sig syscall.Signal) error {
	if sig == syscall.SIGTERM || sig == syscall.SIGKILL {
		return p.Kill()
	}
	return nil
}
