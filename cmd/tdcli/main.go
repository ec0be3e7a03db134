package main

import "github.com/mcoot/towerduel/internal/cli"

func main() {
	cli.Execute()
}
