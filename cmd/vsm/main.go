package main

import "vsm/internal/cli"

func main() {
	cli.Execute()
}
