package main

import "github.com/expediterhq/loadpilot/cmd"

func main() {
	cmd.Execute()
}
