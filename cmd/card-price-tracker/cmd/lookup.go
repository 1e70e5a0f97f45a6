package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/card-price-tracker/pkg/logger"
	"github.com/donaldgifford/card-price-tracker/pkg/query"
	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

func lookupCommand() *cobra.Command {
	var req domain.LookupRequest

	c := &cobra.Command{
		Use:   "lookup [query]",
		Short: "Price a card in-process without starting the server",
		Long: "Runs one lookup against the configured marketplace and prints the result\n" +
			"as JSON. Either pass free text or set --player and the other fields.",
		Example: `  card-price-tracker lookup "2023 Prizm CJ Stroud #339 Silver PSA 10"
  card-price-tracker lookup --player "CJ Stroud" --year 2023 --set Prizm --grade "PSA 10"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				req.Query = args[0]
			}
			if strings.TrimSpace(req.Query) == "" && strings.TrimSpace(req.Player) == "" {
				return fmt.Errorf("pass a query or --player")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := logger.NewWithOptions(os.Stderr, logOptions(cfg))

			res, err := newApp(cfg, log).engine.Lookup(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	}

	f := c.Flags()
	f.StringVar(&req.Player, "player", "", "player name")
	f.StringVar(&req.Year, "year", "", "card year or season")
	f.StringVar(&req.Set, "set", "", "product line or set name")
	f.StringVar(&req.Grade, "grade", "", `grader and grade, e.g. "PSA 10"`)
	f.StringVar(&req.CardNumber, "number", "", "card number")
	f.StringVar(&req.ParallelType, "parallel", "", "parallel or variant")
	f.StringVar(&req.SerialNumber, "serial", "", "print run, e.g. /99")
	f.BoolVar(&req.Autograph, "auto", false, "autographed card")
	f.BoolVar(&req.Relic, "relic", false, "memorabilia card")
	f.BoolVar(&req.Rookie, "rookie", false, "require a rookie designation")
	f.StringSliceVar(&req.Keywords, "keyword", nil, "extra search keyword (repeatable)")
	f.IntVar(&req.Limit, "limit", 0, "maximum listings returned (0 uses the configured default)")

	return c
}

func parseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <query>",
		Short: "Show how a free-text query is normalized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := query.Parse(args[0])
			return writeJSON(cmd, map[string]any{
				"query":       p.Query,
				"locked":      p.Locked,
				"tokens":      p.Tokens,
				"description": p.Query.Describe(),
			})
		},
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
