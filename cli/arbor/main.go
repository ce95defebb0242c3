package main

import (
	"os"

	arborcmder "github.com/arborhq/arbor/cmd/arbor"
)

func main() {
	cmd := arborcmder.NewArborCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
