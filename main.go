package main

import "github.com/pennypal/pennypal/cmd"

func main() {
	cmd.Execute()
}
