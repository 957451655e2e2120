package main

import (
	"github.com/tolkbridge/dispatch/cmd/cli/commands"
)

func main() {
	commands.Execute()
}
