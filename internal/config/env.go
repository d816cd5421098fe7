// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/jeranaias/fredchat/internal/logging"
)

// dotEnvFiles returns the .env candidates in load order. Earlier files win
// because godotenv never overwrites a variable that is already set.
func dotEnvFiles() []string {
	files := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		files = append(files, filepath.Join(dir, ".env"))
	}
	return files
}

// loadDotEnv exports variables from any .env files that exist. Real
// environment variables always take precedence. A file that fails to parse
// is skipped with a warning.
func loadDotEnv() {
	for _, f := range dotEnvFiles() {
		if !fileExists(f) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			logging.L().Warnf("ignoring %s: %v", f, err)
		}
	}
}
