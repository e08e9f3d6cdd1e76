// Command sgmagent is a secure group messaging agent built on MLS.
package main

import (
	"fmt"
	"os"

	"github.com/germtb/sgmagent/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
