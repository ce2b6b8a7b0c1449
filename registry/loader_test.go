package registry

import (
	"context"
	"strings"
	"testing"
)

const testCatalogJSON = `{
  "satellites": [
    {
      "name": "ISS (ZARYA)",
      "norad_id": 25544,
      "tle_line1": "` + issLine1 + `",
      "tle_line2": "` + issLine2 + `"
    },
    {
      "name": "NOAA 15",
      "norad_id": 25338,
      "tle_line1": "` + noaaLine1 + `",
      "tle_line2": "` + noaaLine2 + `"
    }
  ]
}`

func TestLoadCatalogCreates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	result, err := LoadCatalog(ctx, store, strings.NewReader(testCatalogJSON))
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if result.Created != 2 || result.Updated != 0 {
		t.Fatalf("expected 2 created, got %+v", result)
	}
	if len(result.NoradIDs) != 2 {
		t.Fatalf("expected 2 NORAD IDs, got %v", result.NoradIDs)
	}

	sats, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sats) != 2 {
		t.Fatalf("expected 2 satellites in store, got %d", len(sats))
	}
}

func TestLoadCatalogUpserts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := LoadCatalog(ctx, store, strings.NewReader(testCatalogJSON)); err != nil {
		t.Fatalf("first load: %v", err)
	}

	refreshed := `{
  "satellites": [
    {
      "name": "ISS (ZARYA)",
      "norad_id": 25544,
      "tle_line1": "` + issNextLine1 + `",
      "tle_line2": "` + issNextLine2 + `"
    }
  ]
}`
	result, err := LoadCatalog(ctx, store, strings.NewReader(refreshed))
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if result.Created != 0 || result.Updated != 1 {
		t.Fatalf("expected 1 updated, got %+v", result)
	}

	sat, err := store.GetByNorad(ctx, 25544)
	if err != nil {
		t.Fatalf("GetByNorad: %v", err)
	}
	if sat.TLELine1 != issNextLine1 {
		t.Fatalf("expected refreshed TLE, got %q", sat.TLELine1)
	}
}

func TestLoadCatalogRejectsBadInput(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := LoadCatalog(ctx, store, strings.NewReader("{not json")); err == nil {
		t.Fatalf("expected decode error")
	}

	missingName := `{"satellites": [{"norad_id": 25544, "tle_line1": "` + issLine1 + `", "tle_line2": "` + issLine2 + `"}]}`
	if _, err := LoadCatalog(ctx, store, strings.NewReader(missingName)); err == nil {
		t.Fatalf("expected error for entry without name")
	}

	badTLE := `{"satellites": [{"name": "X", "norad_id": 25544, "tle_line1": "garbage", "tle_line2": "lines"}]}`
	if _, err := LoadCatalog(ctx, store, strings.NewReader(badTLE)); err == nil {
		t.Fatalf("expected error for malformed TLE")
	}

	if n, _ := store.Count(ctx); n != 0 {
		t.Fatalf("failed loads must not leave partial state from bad entries, got %d records", n)
	}
}
