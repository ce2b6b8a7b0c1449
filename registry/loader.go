package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/groundsegment/sattrack/model"
)

// LoadResult is a small summary of what a catalog load did, mainly
// useful for logging from the seed command.
type LoadResult struct {
	Created  int
	Updated  int
	NoradIDs []int
}

// internal JSON shapes, unexported so the file format can evolve.
type catalogJSON struct {
	Satellites []catalogEntryJSON `json:"satellites"`
}

type catalogEntryJSON struct {
	Name     string `json:"name"`
	NoradID  int    `json:"norad_id"`
	TLELine1 string `json:"tle_line1"`
	TLELine2 string `json:"tle_line2"`
}

// LoadCatalog reads a JSON satellite catalog from r and upserts every
// entry: unknown NORAD numbers are created, known ones get their TLE
// refreshed. The first invalid entry aborts the load; catalog files
// are curated artifacts and a bad line means the file is wrong.
func LoadCatalog(ctx context.Context, store *Store, r io.Reader) (*LoadResult, error) {
	if store == nil {
		return nil, fmt.Errorf("LoadCatalog: store is nil")
	}

	var payload catalogJSON
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadCatalog: decode failed: %w", err)
	}

	result := &LoadResult{NoradIDs: make([]int, 0, len(payload.Satellites))}

	for i, entry := range payload.Satellites {
		line1 := strings.TrimSpace(entry.TLELine1)
		line2 := strings.TrimSpace(entry.TLELine2)
		if entry.Name == "" {
			return nil, fmt.Errorf("LoadCatalog: entry %d has no name", i)
		}

		existing, err := store.GetByNorad(ctx, entry.NoradID)
		switch {
		case err == nil:
			if _, err := store.UpdateTLE(ctx, existing.ID, line1, line2); err != nil {
				return nil, fmt.Errorf("LoadCatalog: entry %d (%s): %w", i, entry.Name, err)
			}
			result.Updated++
		case errors.Is(err, ErrSatelliteNotFound):
			sat := model.Satellite{
				Name:     entry.Name,
				NoradID:  entry.NoradID,
				TLELine1: line1,
				TLELine2: line2,
			}
			if _, err := store.Create(ctx, sat); err != nil {
				return nil, fmt.Errorf("LoadCatalog: entry %d (%s): %w", i, entry.Name, err)
			}
			result.Created++
		default:
			return nil, fmt.Errorf("LoadCatalog: entry %d (%s): %w", i, entry.Name, err)
		}
		result.NoradIDs = append(result.NoradIDs, entry.NoradID)
	}

	return result, nil
}
