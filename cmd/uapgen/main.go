package main

import (
	"os"

	"github.com/GhostGeeks/UAP-Generator/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
