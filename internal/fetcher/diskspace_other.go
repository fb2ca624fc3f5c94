//go:build !linux && !darwin

package fetcher

// diskFree is unknown here; nil disables the free-space check.
var diskFree func(path string) (uint64, error)
