package cmd

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

func lookupCmd() *cobra.Command {
	var req domain.LookupRequest

	c := &cobra.Command{
		Use:   "lookup [query]",
		Short: "Estimate a sale range for a card",
		Long: "Searches current listings for a card and prints the asking-price summary,\n" +
			"the estimated sale range and any data-quality notes. Pass free text, or\n" +
			"set --player and the other fields for a structured lookup.",
		Args: cobra.MaximumNArgs(1),
		Example: `  cpt lookup "2023 Panini Prizm CJ Stroud #339 Silver PSA 10"
  cpt lookup --player "Luka Doncic" --year 2018 --set Prizm --number 280 --grade "PSA 10"
  cpt lookup "2011 Topps Update Mike Trout #US175" --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				req.Query = args[0]
			}
			if strings.TrimSpace(req.Query) == "" && strings.TrimSpace(req.Player) == "" {
				return errors.New("pass a query or --player")
			}

			res, err := newClient().Lookup(cmd.Context(), &req)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), res)
			}
			return printLookup(cmd.OutOrStdout(), res)
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
	f.IntVar(&req.Limit, "limit", 10, "maximum listings shown")

	return c
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <query>",
		Short: "Show how a free-text query is normalized",
		Args:  cobra.ExactArgs(1),
		Example: `  cpt parse "2023 prizm stroud silver psa 10"
  cpt parse "18 prizm luka #280" --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().Parse(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), res)
			}
			return printParse(cmd.OutOrStdout(), res)
		},
	}
}

func quotaCmd() *cobra.Command {
	var refresh bool

	c := &cobra.Command{
		Use:   "quota",
		Short: "Show marketplace quota and backoff state",
		Example: `  cpt quota
  cpt quota --refresh --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := newClient().Quota(cmd.Context(), refresh)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), res)
			}
			return printQuota(cmd.OutOrStdout(), res)
		},
	}
	c.Flags().BoolVar(&refresh, "refresh", false, "sync the Browse counter from the Analytics API first")
	return c
}
