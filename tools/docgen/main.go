// Package main writes the markdown CLI reference for both binaries: the
// card-price-tracker server and the cpt client.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	server "github.com/donaldgifford/card-price-tracker/cmd/card-price-tracker/cmd"
	client "github.com/donaldgifford/card-price-tracker/cmd/cpt/cmd"
)

func main() {
	output := flag.String("output", "docs/cli", "output directory for generated markdown")
	flag.Parse()

	trees := map[string]*cobra.Command{
		"card-price-tracker": server.Root(),
		"cpt":                client.Root(),
	}
	for name, root := range trees {
		if err := generate(root, filepath.Join(*output, name)); err != nil {
			log.Fatalf("%s: %v", name, err)
		}
	}

	fmt.Printf("CLI docs generated in %s/\n", *output)
}

func generate(root *cobra.Command, dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	root.DisableAutoGenTag = true
	if err := doc.GenMarkdownTree(root, dir); err != nil {
		return fmt.Errorf("generating docs: %w", err)
	}
	return nil
}
