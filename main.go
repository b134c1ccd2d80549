package main

import "github.com/kamal-hamza/nst/cmd"

func main() {
	cmd.Execute()
}
