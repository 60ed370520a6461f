package main

import (
	"os"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		printError(root, err)
		os.Exit(1)
	}
}
