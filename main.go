package main

import "github.com/tabulensis/fixturegen/cmd"

func main() {
	cmd.Execute()
}
