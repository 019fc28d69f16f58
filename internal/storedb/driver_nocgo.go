//go:build !cgo

package storedb

import _ "modernc.org/sqlite"

// driverName falls back to the pure-Go sqlite driver for CGO_ENABLED=0
// builds (cross-compilation, minimal container images).
const driverName = "sqlite"
