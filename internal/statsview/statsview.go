//go:build statsview

package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// Launch starts the stats server on addr in a new goroutine and reports its
// URL to output.
func Launch(output io.Writer, addr string) {
	if addr == "" {
		addr = Address
	}
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(addr))
		mgr := statsview.New()
		mgr.Start()
	}()
	fmt.Fprintf(output, "stats server available at http://%s%s\n", addr, url)
}

// Available returns true if the stats server can be launched.
func Available() bool {
	return true
}
