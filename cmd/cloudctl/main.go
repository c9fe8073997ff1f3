package main

import (
	"os"

	"github.com/wechange-eg/cloudctl/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
