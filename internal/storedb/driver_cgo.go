//go:build cgo

package storedb

import _ "github.com/mattn/go-sqlite3"

// driverName selects the cgo sqlite3 driver when cgo is available: faster
// for the write-heavy queue/cache workload, at the cost of a C toolchain at
// build time.
const driverName = "sqlite3"
