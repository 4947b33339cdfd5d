// Package main is the entry point for the Chimera service.
package main

import "github.com/Wikid82/chimera/backend/internal/cli"

func main() {
	cli.Execute()
}
