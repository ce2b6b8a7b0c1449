package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groundsegment/sattrack/internal/celestrak"
	"github.com/groundsegment/sattrack/internal/config"
)

var fetchNorad int

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch a TLE from CelesTrak and print it",
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().IntVar(&fetchNorad, "norad", 0, "NORAD catalog number")
	fetchCmd.MarkFlagRequired("norad")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	client := celestrak.NewClient(cfg.Celestrak.BaseURL,
		celestrak.WithTimeout(cfg.Celestrak.Timeout),
	)
	rec, err := client.FetchTLE(cmd.Context(), fetchNorad)
	if err != nil {
		return err
	}

	if rec.Name != "" {
		fmt.Println(rec.Name)
	}
	fmt.Println(rec.Line1)
	fmt.Println(rec.Line2)
	return nil
}
