package main

import "github.com/Roman77St/trimsound/internal/cli"

func main() {
	cli.Main()
}
