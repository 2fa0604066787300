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

// Package registry holds the static set of worker definitions.
// registry 包保存静态的工作进程定义集合。
//
// The registry is pure data: it is built once at startup from host-supplied
// definitions and is read-only afterwards, so it needs no synchronization.
// registry 是纯数据：它在启动时由宿主提供的定义构建一次，之后只读，因此不需要同步。
package registry

import (
	"errors"
	"fmt"
)

// Common errors for registry construction
// 注册表构建的常见错误
var (
	// ErrDuplicateID indicates two definitions share the same id
	// ErrDuplicateID 表示两个定义使用了相同的 id
	ErrDuplicateID = errors.New("duplicate worker id")

	// ErrEmptyID indicates a definition without an id
	// ErrEmptyID 表示定义缺少 id
	ErrEmptyID = errors.New("worker id is empty")

	// ErrEmptyExecutable indicates a definition without an executable path
	// ErrEmptyExecutable 表示定义缺少可执行文件路径
	ErrEmptyExecutable = errors.New("worker executable path is empty")
)

// Definition describes one worker process. It is immutable after load.
// Definition 描述一个工作进程。加载后不可变。
type Definition struct {
	// ID is the unique key for this worker
	// ID 是此工作进程的唯一键
	ID string `json:"id" yaml:"id"`

	// DisplayName is the human-readable label
	// DisplayName 是人类可读的标签
	DisplayName string `json:"display_name" yaml:"display_name"`

	// Executable is the filesystem path of the program to launch
	// Executable 是要启动的程序的文件系统路径
	Executable string `json:"executable" yaml:"executable"`

	// Args are the arguments passed to the executable
	// Args 是传递给可执行文件的参数
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`

	// Enabled controls whether the supervisor ever launches this worker
	// Enabled 控制监管器是否启动此工作进程
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Capabilities are opaque tags describing what the worker offers;
	// the supervisor passes them through for status reporting only
	// Capabilities 是描述工作进程能力的不透明标签；监管器仅将其透传用于状态上报
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`

	// Env is layered over the host process environment at launch time
	// Env 在启动时覆盖在宿主进程环境变量之上
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// Registry is the read-only collection of worker definitions.
// Registry 是工作进程定义的只读集合。
type Registry struct {
	defs []Definition
	byID map[string]int // index into defs / defs 的索引
}

// New builds a registry from the supplied definitions and validates them.
// New 从提供的定义构建注册表并进行验证。
func New(defs []Definition) (*Registry, error) {
	r := &Registry{
		defs: make([]Definition, len(defs)),
		byID: make(map[string]int, len(defs)),
	}
	copy(r.defs, defs)

	for i, def := range r.defs {
		if def.ID == "" {
			return nil, fmt.Errorf("%w: definition #%d", ErrEmptyID, i)
		}
		if def.Executable == "" {
			return nil, fmt.Errorf("%w: worker %q", ErrEmptyExecutable, def.ID)
		}
		if _, exists := r.byID[def.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, def.ID)
		}
		r.byID[def.ID] = i
	}

	return r, nil
}

// All returns every known definition, enabled or not, in load order.
// All 按加载顺序返回所有已知定义，无论是否启用。
func (r *Registry) All() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Enabled returns the definitions the supervisor should launch, in load order.
// Enabled 按加载顺序返回监管器应启动的定义。
func (r *Registry) Enabled() []Definition {
	var out []Definition
	for _, def := range r.defs {
		if def.Enabled {
			out = append(out, def)
		}
	}
	return out
}

// Get looks up a definition by id.
// Get 按 id 查找定义。
func (r *Registry) Get(id string) (Definition, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// Len returns the number of known definitions.
// Len 返回已知定义的数量。
func (r *Registry) Len() int {
	return len(r.defs)
}
