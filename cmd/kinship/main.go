package main

import (
	"github.com/DrSkyle/kinship/cmd/kinship/commands"
)

func main() {
	commands.Execute()
}
