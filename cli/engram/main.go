package main

import (
	"os"

	engramcmder "github.com/engramlabs/engram/cmd/engram"
)

func main() {
	cmd := engramcmder.NewEngramCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
