// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

// turnSettledMsg signals that a chat turn finished, successfully or not.
// The outcome itself is read back from the core; err is only set when the
// turn never started (a second send racing an in-flight one), in which
// case text carries the rejected input so it can be restored.
type turnSettledMsg struct {
	err  error
	text string
}

// switchRejectedMsg signals that a conversation switch was refused because
// a turn is still pending.
type switchRejectedMsg struct {
	reason string
}
