// Package main is the entry point for the card-price-tracker.
package main

import (
	"os"

	"github.com/donaldgifford/card-price-tracker/cmd/card-price-tracker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
