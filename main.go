package main

import (
	"os"

	"github.com/conneroisu/jopilink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
