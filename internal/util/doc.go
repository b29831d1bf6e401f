// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for polychat.
//
// # Key Functions
//
//   - AtomicWriteFile: Crash-safe file writes (temp file + fsync + rename)
//   - Truncate: Rune-safe string truncation with ellipsis
package util
