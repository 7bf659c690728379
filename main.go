package main

import (
	"fmt"
	"os"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/cli"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if err := cli.Execute(Version); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
