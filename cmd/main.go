package main

import (
	"os"

	"github.com/imgmeta/exifedit/cmd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
