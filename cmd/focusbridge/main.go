package main

import (
	"os"

	"focusbridge/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
