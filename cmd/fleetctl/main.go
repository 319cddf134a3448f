package main

import (
	"os"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
