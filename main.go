package main

import "github.com/kozaktomas/facebank/cmd"

func main() {
	cmd.Execute()
}
