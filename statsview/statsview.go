// Package statsview serves live runtime charts (goroutines, heap, GC pauses)
// for watching the worker under load.
package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// DefaultAddress is where the stats server listens unless told otherwise.
const DefaultAddress = "localhost:12600"

const url = "/debug/statsview"

// Launch starts the stats server on addr in the background and writes its
// URL to output.
func Launch(output io.Writer, addr string) {
	if addr == "" {
		addr = DefaultAddress
	}
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(addr))
		mgr := statsview.New()
		mgr.Start()
	}()

	fmt.Fprintf(output, "stats server available at http://%s%s\n", addr, url)
}
