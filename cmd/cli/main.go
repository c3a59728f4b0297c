// Command boxquery is the CLI for running and queueing spatial queries
// against 2^d-tree snapshots.
package main

import "github.com/boxquery/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
