//go:build !statsview

package statsview

import (
	"fmt"
	"io"
)

// Launch reports that the stats server is not compiled in.
func Launch(output io.Writer, _ string) {
	fmt.Fprintln(output, "stats server not available: rebuild with -tags statsview")
}

// Available returns true if the stats server can be launched.
func Available() bool {
	return false
}
