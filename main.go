package main

import (
	"fmt"

	"github.com/dominicbreuker/notifywatch/cmd"
)

var version string
var commit string

func main() {
	fmt.Printf("notifywatch - version: %s - Commit SHA: %s\n", version, commit)
	cmd.Execute()
}
