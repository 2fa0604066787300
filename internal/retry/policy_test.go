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

package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestDefaultPolicy tests the reference policy values
// TestDefaultPolicy 测试参考策略值
func TestDefaultPolicy(t *testing.T) {
	p := Default()
	assert.Equal(t, 5*time.Second, p.BaseDelay)
	assert.Equal(t, 3, p.MaxAttempts)
}

// TestShouldRetry tests the attempt budget boundaries
// TestShouldRetry 测试尝试预算的边界
func TestShouldRetry(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxAttempts: 3}

	// Attempts within budget are allowed / 预算内的尝试被允许
	assert.True(t, p.ShouldRetry(1))
	assert.True(t, p.ShouldRetry(2))
	assert.True(t, p.ShouldRetry(3))

	// Attempt beyond budget is refused / 超出预算的尝试被拒绝
	assert.False(t, p.ShouldRetry(4))

	// Non-positive attempts are never valid / 非正数尝试永远无效
	assert.False(t, p.ShouldRetry(0))
	assert.False(t, p.ShouldRetry(-1))
}

// TestShouldRetryZeroBudget tests that a zero budget disables restarts
// TestShouldRetryZeroBudget 测试零预算禁用重启
func TestShouldRetryZeroBudget(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxAttempts: 0}
	assert.False(t, p.ShouldRetry(1))
}

// TestDelayFor tests the linear backoff progression
// TestDelayFor 测试线性退避的递增
func TestDelayFor(t *testing.T) {
	p := Policy{BaseDelay: 5 * time.Second, MaxAttempts: 3}

	assert.Equal(t, 5*time.Second, p.DelayFor(1))
	assert.Equal(t, 10*time.Second, p.DelayFor(2))
	assert.Equal(t, 15*time.Second, p.DelayFor(3))
}

// TestDelayForClampsLowAttempts tests that malformed counters never produce
// a zero or negative delay
// TestDelayForClampsLowAttempts 测试异常计数永远不会产生零或负延迟
func TestDelayForClampsLowAttempts(t *testing.T) {
	p := Policy{BaseDelay: 2 * time.Second, MaxAttempts: 3}

	assert.Equal(t, 2*time.Second, p.DelayFor(0))
	assert.Equal(t, 2*time.Second, p.DelayFor(-7))
}
