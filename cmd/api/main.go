package main

import (
	"os"

	"github.com/denisok6893-rgb/leadqual/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
