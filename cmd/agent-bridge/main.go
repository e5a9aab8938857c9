package main

import (
	"os"

	"delegate/internal/bridge"
)

func main() {
	os.Exit(bridge.Run(os.Args[1:], bridge.DefaultOptions()))
}
