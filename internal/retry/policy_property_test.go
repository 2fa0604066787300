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

	"pgregory.net/rapid"
)

// **Property: delay grows monotonically with the attempt number**
// For any policy and any pair of attempts i < j, DelayFor(i) <= DelayFor(j).
// 对于任何策略和任何一对尝试 i < j，DelayFor(i) <= DelayFor(j)。
func TestProperty_DelayMonotonicity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := time.Duration(rapid.IntRange(1, 60_000).Draw(t, "baseMillis")) * time.Millisecond
		p := Policy{
			BaseDelay:   base,
			MaxAttempts: rapid.IntRange(1, 10).Draw(t, "maxAttempts"),
		}

		i := rapid.IntRange(1, 100).Draw(t, "i")
		j := rapid.IntRange(i, 100).Draw(t, "j")

		if p.DelayFor(i) > p.DelayFor(j) {
			t.Errorf("DelayFor(%d)=%v exceeds DelayFor(%d)=%v", i, p.DelayFor(i), j, p.DelayFor(j))
		}
	})
}

// **Property: exact linear backoff**
// For any attempt k >= 1, DelayFor(k) equals BaseDelay * k.
// 对于任何尝试 k >= 1，DelayFor(k) 等于 BaseDelay * k。
func TestProperty_DelayIsLinear(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := time.Duration(rapid.IntRange(1, 10_000).Draw(t, "baseMillis")) * time.Millisecond
		p := Policy{BaseDelay: base, MaxAttempts: 3}

		k := rapid.IntRange(1, 1000).Draw(t, "attempt")
		want := base * time.Duration(k)
		if got := p.DelayFor(k); got != want {
			t.Errorf("DelayFor(%d) = %v, want %v", k, got, want)
		}
	})
}

// **Property: the attempt budget is a hard bound**
// ShouldRetry accepts exactly the attempts in [1, MaxAttempts] and nothing
// else, so a worker can never be relaunched more than MaxAttempts times.
// ShouldRetry 恰好接受 [1, MaxAttempts] 范围内的尝试，不接受任何其它尝试，
// 因此工作进程的重启次数绝不会超过 MaxAttempts。
func TestProperty_AttemptBudgetIsHardBound(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := Policy{
			BaseDelay:   time.Second,
			MaxAttempts: rapid.IntRange(0, 20).Draw(t, "maxAttempts"),
		}

		attempt := rapid.IntRange(-5, 50).Draw(t, "attempt")
		want := attempt >= 1 && attempt <= p.MaxAttempts
		if got := p.ShouldRetry(attempt); got != want {
			t.Errorf("ShouldRetry(%d) with budget %d = %v, want %v",
				attempt, p.MaxAttempts, got, want)
		}
	})
}
