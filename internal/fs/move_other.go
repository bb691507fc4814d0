//go:build !unix

package fs

// isCrossDevice is never true off unix, so Move reports the rename error as is.
func isCrossDevice(error) bool {
	return false
}
