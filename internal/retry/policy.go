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

// Package retry provides the restart backoff policy for crashed workers.
// retry 包提供崩溃工作进程的重启退避策略。
//
// The policy is a pure decision function with no state of its own:
// 策略是无自身状态的纯决策函数：
// - ShouldRetry(attempt) -> whether another relaunch is allowed / 是否允许再次重启
// - DelayFor(attempt) -> how long to wait before that relaunch / 重启前等待多久
package retry

import "time"

// Default policy values
// 默认策略值
const (
	// DefaultBaseDelay is the base delay multiplied by the attempt number
	// DefaultBaseDelay 是乘以尝试次数的基础延迟
	DefaultBaseDelay = 5 * time.Second

	// DefaultMaxAttempts is the maximum number of relaunch attempts per worker
	// DefaultMaxAttempts 是每个工作进程的最大重启尝试次数
	DefaultMaxAttempts = 3
)

// Policy describes a bounded linear-in-attempt backoff.
// Policy 描述有界的、随尝试次数线性增长的退避。
//
// The first retry is attempt 1. Once attempt exceeds MaxAttempts the worker
// is considered permanently failed.
// 第一次重试为 attempt 1。一旦 attempt 超过 MaxAttempts，工作进程视为永久失败。
type Policy struct {
	// BaseDelay is the delay unit; attempt k waits BaseDelay * k
	// BaseDelay 是延迟单位；第 k 次尝试等待 BaseDelay * k
	BaseDelay time.Duration

	// MaxAttempts is the number of relaunches allowed per worker
	// MaxAttempts 是每个工作进程允许的重启次数
	MaxAttempts int
}

// Default returns the reference policy (5s base delay, 3 attempts).
// Default 返回参考策略（基础延迟 5 秒，3 次尝试）。
func Default() Policy {
	return Policy{
		BaseDelay:   DefaultBaseDelay,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// ShouldRetry reports whether relaunch attempt number `attempt` is allowed.
// ShouldRetry 报告是否允许第 attempt 次重启尝试。
func (p Policy) ShouldRetry(attempt int) bool {
	return attempt > 0 && attempt <= p.MaxAttempts
}

// DelayFor returns the delay to apply before relaunch attempt `attempt`.
// DelayFor 返回第 attempt 次重启尝试前应用的延迟。
//
// Attempts below 1 are clamped to 1 so a malformed counter never produces
// a zero or negative delay.
// 小于 1 的尝试次数被钳制为 1，避免异常计数产生零或负延迟。
func (p Policy) DelayFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BaseDelay * time.Duration(attempt)
}
