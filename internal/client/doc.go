// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client assembles the embeddable sync engine: durable action queue,
// sync manager, local cache, realtime event client and background workers,
// wired from one ClientConfig.
//
// The mobile shell owns the process lifecycle. It builds an [App], calls
// Initialize once, Connect after sign-in, and SignOut/Shutdown on the way
// out. Everything in between (queue flushing, reconnects, cache
// reconciliation) runs in the background.
package client
