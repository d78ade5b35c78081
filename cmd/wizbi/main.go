// Package main implements the wizbi provisioning server.
// It serves the provisioning API and runs the saga workers.
package main

import "github.com/wizbi/wizbi/cmd/wizbi/cmd"

func main() {
	cmd.Execute()
}
