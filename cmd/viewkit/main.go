// Command viewkit runs and inspects view lifecycle scenarios.
package main

import (
	"os"

	"github.com/go-drift/viewkit/cmd/viewkit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
