// Command intent-resolver turns oracle drafts into validated canonical actions.
package main

import "github.com/Sentinel-Gate/intentresolver/cmd/intent-resolver/cmd"

func main() {
	cmd.Execute()
}
