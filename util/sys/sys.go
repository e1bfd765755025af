// Package sys counts the host's open TCP and UDP connections for the admin
// status endpoint. Linux reads procfs directly, other platforms go through
// gopsutil.
package sys

import (
	_ "unsafe"
)

//go:linkname HostProc github.com/shirou/gopsutil/v4/internal/common.HostProc
func HostProc(combineWith ...string) string
