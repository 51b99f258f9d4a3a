// swatch extracts colour palettes from images.
package main

import (
	"fmt"
	"os"

	"github.com/jmylchreest/swatch/internal/cli"
	"github.com/jmylchreest/swatch/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "swatch: %v\n", err)
		os.Exit(1)
	}
	if err := cli.NewRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}
