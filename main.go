package main

import (
	"github.com/luma/meshlink/cmd"
)

func main() {
	cmd.Execute()
}
