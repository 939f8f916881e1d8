// Command simon plays and inspects Simon memory games.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/roach88/simon/internal/cli"
)

func main() {
	// A missing .env is fine
	_ = godotenv.Load()

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
