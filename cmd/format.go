package cmd

import (
	"io"
	"os"
	"strconv"
)

// openInput opens path for reading, treating "-" as stdin.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	return os.Open(path) //nolint:gosec
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func hexUint16(v uint16) string {
	return strconv.FormatUint(uint64(v), 16)
}
