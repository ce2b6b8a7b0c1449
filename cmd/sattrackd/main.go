// Command sattrackd tracks a catalog of Earth satellites: it stores
// TLE element sets, propagates them with SGP4 and serves positions,
// look angles and a live WebSocket stream over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sattrackd",
	Short: "Satellite tracking daemon",
	Long: `sattrackd manages a satellite catalog backed by SQLite and computes
subpoint positions with the SGP4 propagation model. The serve command
runs the HTTP API; the remaining commands are one-shot catalog and
query tools sharing the same configuration.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(positionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
