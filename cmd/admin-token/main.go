package main

import (
	"fmt"
	"os"

	"github.com/rifs/rifs-api/internal/config"
)

func main() {
	cfg := config.Load()

	if err := newRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
