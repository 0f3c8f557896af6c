package main

import "github.com/vietddude/pacman/internal/cli"

func main() {
	cli.Execute()
}
