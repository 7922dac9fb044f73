package main

import "motico-catalog/cmd/catalogctl/commands"

func main() {
	commands.Execute()
}
