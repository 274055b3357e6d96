// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the recordsync command-line application.
//
// It wires the remote store adapter, the local outbox, the push worker and the
// record browser into one process and dispatches the positional subcommand
// left after configuration flags.
package client
