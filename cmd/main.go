package main

import (
	"os"

	"github.com/omaks45/Brainiac-backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
