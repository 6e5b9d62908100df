// Package main is the nnsearch command itself.
package main

import (
	"log"
	"os"

	"go.viam.com/organized/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
