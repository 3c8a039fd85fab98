package main

import (
	"github.com/sw33tLie/contestlog/cmd"
)

func main() {
	cmd.Execute()
}
