// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small string and file helpers.
//
//   - TruncateRunes, TruncateWidth, StringWidth, SafeSubstring: UTF-8 and
//     column-aware string handling for terminal output
//   - AtomicWriteFile: crash-safe writes for config and export files
package util
