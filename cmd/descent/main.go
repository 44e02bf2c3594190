package main

import (
	"os"

	"github.com/msto63/descent/cmd/descent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
