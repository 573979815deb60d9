// Package main is the entry point for the simstage CLI.
package main

import "simstage.dev/pkg/simstage/cmd"

func main() {
	cmd.Execute()
}
