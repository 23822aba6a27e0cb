package main

import (
	"os"

	"github.com/mame82/amlboot/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
