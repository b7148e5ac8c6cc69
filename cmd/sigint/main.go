// Command sigint drives web-application and brand reconnaissance:
// planning discovery queries from a fingerprint, searching configured
// sources for candidate hosts, and verifying each candidate against
// the fingerprint's probe plan.
package main

import (
	"fmt"
	"os"

	"github.com/censys/sigint/internal/cli"
)

func main() {
	root, err := cli.NewRootCommand()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
