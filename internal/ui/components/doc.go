// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components holds reusable terminal widgets.
//
// CodeBlock draws a reply as a bordered, line-numbered block with chroma
// syntax highlighting; ParseCodeBlocks does the same for each ``` fence
// inside otherwise plain text.
package components
