package main

import "github.com/bryanchriswhite/screenagent/cmd/screenagent/commands"

func main() {
	commands.Execute()
}
