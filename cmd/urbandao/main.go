package main

import (
	"os"

	"github.com/urbandao/urbandao/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
