package main

import "github.com/mcoot/sandbag/internal/cli"

func main() {
	cli.Execute()
}
