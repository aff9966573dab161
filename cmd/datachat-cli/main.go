package main

import "github.com/futig/datachat/internal/cli"

func main() {
	cli.Execute()
}
