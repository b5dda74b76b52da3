// Command awacs runs the AWACS controller: it follows a realtime telemetry
// feed, issues automatic calls and answers radio commands over HTTP.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
