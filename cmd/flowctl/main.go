// Command flowctl is the CLI entry point for the workflow engine.
package main

import "github.com/kris-hansen/flowctl/cmd"

func main() {
	cmd.Execute()
}
