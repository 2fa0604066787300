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

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewRegistry tests registry construction and lookup
// TestNewRegistry 测试注册表构建和查找
func TestNewRegistry(t *testing.T) {
	defs := []Definition{
		{ID: "alpha", Executable: "/usr/bin/alpha", Enabled: true},
		{ID: "beta", Executable: "/usr/bin/beta", Enabled: false},
		{ID: "gamma", Executable: "/usr/bin/gamma", Enabled: true, Capabilities: []string{"http"}},
	}

	r, err := New(defs)
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.Equal(t, 3, r.Len())

	// Lookup by id / 按 id 查找
	def, ok := r.Get("beta")
	require.True(t, ok)
	assert.Equal(t, "/usr/bin/beta", def.Executable)
	assert.False(t, def.Enabled)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

// TestNewRegistryValidation tests the construction error cases
// TestNewRegistryValidation 测试构建错误情况
func TestNewRegistryValidation(t *testing.T) {
	// Empty id / 空 id
	_, err := New([]Definition{{Executable: "/usr/bin/x"}})
	assert.ErrorIs(t, err, ErrEmptyID)

	// Empty executable / 空可执行文件
	_, err = New([]Definition{{ID: "x"}})
	assert.ErrorIs(t, err, ErrEmptyExecutable)

	// Duplicate id / 重复 id
	_, err = New([]Definition{
		{ID: "x", Executable: "/usr/bin/x"},
		{ID: "x", Executable: "/usr/bin/y"},
	})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

// TestRegistryEnabled tests that only enabled definitions are selected
// TestRegistryEnabled 测试仅选择启用的定义
func TestRegistryEnabled(t *testing.T) {
	defs := []Definition{
		{ID: "a", Executable: "/bin/a", Enabled: true},
		{ID: "b", Executable: "/bin/b", Enabled: false},
		{ID: "c", Executable: "/bin/c", Enabled: true},
	}

	r, err := New(defs)
	require.NoError(t, err)

	enabled := r.Enabled()
	require.Len(t, enabled, 2)

	// Load order is preserved / 保留加载顺序
	assert.Equal(t, "a", enabled[0].ID)
	assert.Equal(t, "c", enabled[1].ID)

	// All returns everything / All 返回所有定义
	assert.Len(t, r.All(), 3)
}

// TestRegistryEmptySet tests that an empty definition set is valid
// TestRegistryEmptySet 测试空定义集合是有效的
func TestRegistryEmptySet(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Enabled())
	assert.Empty(t, r.All())
}

// TestRegistryImmutable tests that mutating returned slices does not affect
// the registry
// TestRegistryImmutable 测试修改返回的切片不影响注册表
func TestRegistryImmutable(t *testing.T) {
	r, err := New([]Definition{{ID: "a", Executable: "/bin/a", Enabled: true}})
	require.NoError(t, err)

	all := r.All()
	all[0].ID = "mutated"

	def, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", def.ID)
}
