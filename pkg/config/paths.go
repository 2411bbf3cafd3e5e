// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the engine configuration: env vars first, an
// optional YAML file second, defaults last.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// GetDataDir returns the driftbench data directory.
//
// Priority:
// 1. DRIFTBENCH_DATA_DIR environment variable (if set and non-empty)
// 2. ~/.driftbench (default)
//
// The returned path is always absolute; ~ is expanded. This is called
// during bootstrap, before the config file is loaded, to locate the
// config file itself.
func GetDataDir() string {
	if dataDir := os.Getenv("DRIFTBENCH_DATA_DIR"); dataDir != "" {
		return expandPath(dataDir)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".driftbench"
	}
	return filepath.Join(homeDir, ".driftbench")
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			if path == "~" {
				return homeDir
			}
			return filepath.Join(homeDir, path[2:])
		}
	}
	if filepath.IsAbs(path) {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
