package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/pingone-tools/internal/app"
)

func main() {
	err := app.Run(os.Stdout, os.Stderr, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "pingone-tools: %v\n", err)
	}
	os.Exit(app.ExitCode(err))
}
