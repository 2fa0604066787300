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

// Package logging builds the structured log sink for the daemon.
// logging 包构建守护进程的结构化日志接收端。
//
// Console output always goes to stderr; when a file is configured the same
// records are written there as JSON with lumberjack rotation.
// 控制台输出始终写到 stderr；配置了文件时，相同的记录以 JSON 形式写入文件
// 并由 lumberjack 轮转。
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options are the log sink settings.
// Options 是日志接收端的设置。
type Options struct {
	// Level is one of debug, info, warn, error
	// Level 是 debug、info、warn、error 之一
	Level string

	// File is the log file path; empty disables file output
	// File 是日志文件路径；为空时禁用文件输出
	File string

	// MaxSize is the maximum size in MB before rotation
	// MaxSize 是轮转前的最大大小（MB）
	MaxSize int

	// MaxBackups is the maximum number of rotated files to retain
	// MaxBackups 是保留的轮转文件的最大数量
	MaxBackups int

	// MaxAge is the maximum number of days to retain rotated files
	// MaxAge 是保留轮转文件的最大天数
	MaxAge int
}

// New constructs the zap logger described by the options.
// New 构建由选项描述的 zap 日志器。
func New(opts Options) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), lvl),
	}

	if opts.File != "" {
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge,
		}
		cores = append(cores,
			zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(rotator), lvl))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}
