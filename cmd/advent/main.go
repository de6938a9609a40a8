package main

import (
	"os"

	"github.com/arnavshah/advent-allocator/pkg/config"
)

func main() {
	config.LoadDotEnv()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
