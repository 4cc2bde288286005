package main

import (
	"os"

	"github.com/scalarorg/lending-bridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
