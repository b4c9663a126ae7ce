// Package textutil inspects raw file contents before they reach a parser.
package textutil

import "bytes"

// SniffLength is how many leading bytes IsBinary looks at.
const SniffLength = 8000

// IsBinary reports whether data holds a NUL byte in its first SniffLength
// bytes, the same test git applies.
func IsBinary(data []byte) bool {
	return bytes.IndexByte(data[:min(len(data), SniffLength)], 0) >= 0
}
