package main

import "github.com/jacokyle01/chesseval/cmd"

func main() {
	cmd.Execute()
}
