package main

import "github.com/sadopc/tempo/internal/cli"

func main() {
	cli.Execute()
}
