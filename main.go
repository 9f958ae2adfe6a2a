package main

import "cvetl/internal/cli"

func main() {
	cli.Execute()
}
