// Command replica inspects and queries a local item replica.
package main

import (
	"os"

	"github.com/roach88/replica/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	os.Exit(cli.GetExitCode(err))
}
