package main

import "github.com/goliatone/go-generic-dao/cmd/daoctl/commands"

func main() {
	commands.Execute()
}
