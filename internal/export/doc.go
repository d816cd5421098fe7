// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the in-memory chat transcript to files.
//
// Transcripts are never persisted on their own; export is the only way a
// conversation leaves the process.
//
// # Key Types
//
//   - Document: Transcript plus title, bot name and avatars
//   - Exporter: Format interface (HTML, Markdown, JSON)
//   - Options: Output directory, metadata, theme and reply formatter
//
// # Usage
//
//	doc := export.NewDocument(cfg, vm.Messages())
//	opts := export.DefaultOptions()
//	opts.OutputDir = cfg.UI.ExportDir
//	opts.Formatter = render.NewHTMLFormatter(render.TrustEscape)
//	path, err := export.ExportHTML(doc, opts)
//
// Files are named fredchat_<title>_<timestamp>.<ext> and created with 0600
// permissions.
package export
