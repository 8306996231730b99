package main

import "github.com/agentic-research/neutralizer/cmd"

func main() {
	cmd.Execute()
}
