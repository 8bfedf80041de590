// acsearch compiles named pattern sets into double-array Aho-Corasick
// automata and scans text with them, from the command line or a daemon.
package main

import (
	"os"

	"github.com/corey/acsearch/cmd/acsearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
