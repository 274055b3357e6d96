// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package sandbox implements an in-memory remote record store for local
// development and end-to-end tests of the sync client.
//
// It answers writes with per-record results and queries with raw pages in
// the same layout the real remote store uses: field values travel as
// namespaced fragments inside "any", identifiers are repeated, and results
// larger than the page size are continued with a query locator.
package sandbox
