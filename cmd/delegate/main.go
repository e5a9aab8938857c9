package main

import "delegate/cmd/delegate/cmd"

func main() {
	cmd.Execute()
}
