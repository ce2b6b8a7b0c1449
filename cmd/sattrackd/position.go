package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/groundsegment/sattrack/internal/config"
	"github.com/groundsegment/sattrack/orbit"
	"github.com/groundsegment/sattrack/registry"
)

var (
	positionNorad int
	positionAt    string
)

var positionCmd = &cobra.Command{
	Use:   "position",
	Short: "Print a cataloged satellite's subpoint position as JSON",
	RunE:  runPosition,
}

func init() {
	positionCmd.Flags().IntVar(&positionNorad, "norad", 0, "NORAD catalog number")
	positionCmd.Flags().StringVar(&positionAt, "at", "", "instant to propagate to (RFC 3339, default now)")
	positionCmd.MarkFlagRequired("norad")
}

func runPosition(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	at := time.Now().UTC()
	if positionAt != "" {
		at, err = time.Parse(time.RFC3339, positionAt)
		if err != nil {
			return fmt.Errorf("parsing --at: %w", err)
		}
	}

	store, err := registry.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	sat, err := store.GetByNorad(cmd.Context(), positionNorad)
	if err != nil {
		return err
	}
	fix, err := orbit.NewEngine().ComputePosition(cmd.Context(), sat, at)
	if err != nil {
		return err
	}

	out := struct {
		NoradID      int       `json:"norad_id"`
		Name         string    `json:"name"`
		At           time.Time `json:"at"`
		LatitudeDeg  float64   `json:"latitude_deg"`
		LongitudeDeg float64   `json:"longitude_deg"`
		AltitudeKm   float64   `json:"altitude_km"`
		SpeedKmS     float64   `json:"speed_km_s"`
	}{
		NoradID:      fix.NoradID,
		Name:         fix.Name,
		At:           fix.At,
		LatitudeDeg:  fix.Subpoint.LatitudeDeg,
		LongitudeDeg: fix.Subpoint.LongitudeDeg,
		AltitudeKm:   fix.Subpoint.AltitudeKm,
		SpeedKmS:     fix.SpeedKmS,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
