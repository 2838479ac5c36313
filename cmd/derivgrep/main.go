// Command derivgrep searches files with derivre patterns and benchmarks the
// matcher.
package main

import (
	"github.com/golang/glog"

	"github.com/coregx/derivre/cmd/derivgrep/cmd"
)

func main() {
	defer glog.Flush()
	cmd.Execute()
}
