package main

import "github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/cli"

func main() {
	cli.Execute()
}
