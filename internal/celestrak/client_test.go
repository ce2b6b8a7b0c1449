package celestrak

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const (
	issName  = "ISS (ZARYA)"
	issLine1 = "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9993"
	issLine2 = "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257767"
)

func issResponse() string {
	return issName + "\n" + issLine1 + "\n" + issLine2 + "\n"
}

func TestFetchTLE(t *testing.T) {
	var gotPath, gotCATNR, gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCATNR = r.URL.Query().Get("CATNR")
		gotFormat = r.URL.Query().Get("FORMAT")
		w.Write([]byte(issResponse()))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	rec, err := client.FetchTLE(context.Background(), 25544)
	if err != nil {
		t.Fatalf("FetchTLE: %v", err)
	}
	if rec.Name != issName {
		t.Fatalf("name = %q", rec.Name)
	}
	if rec.Line1 != issLine1 || rec.Line2 != issLine2 {
		t.Fatalf("lines do not match response: %q / %q", rec.Line1, rec.Line2)
	}
	if gotPath != "/NORAD/elements/gp.php" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotCATNR != "25544" || gotFormat != "TLE" {
		t.Fatalf("query = CATNR %q FORMAT %q", gotCATNR, gotFormat)
	}
}

func TestFetchTLEWithoutNameLine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(issLine1 + "\r\n" + issLine2 + "\r\n"))
	}))
	defer srv.Close()

	rec, err := NewClient(srv.URL).FetchTLE(context.Background(), 25544)
	if err != nil {
		t.Fatalf("FetchTLE: %v", err)
	}
	if rec.Name != "" {
		t.Fatalf("expected empty name for 2LE response, got %q", rec.Name)
	}
	if rec.Line1 != issLine1 {
		t.Fatalf("carriage returns should be stripped, got %q", rec.Line1)
	}
}

func TestFetchTLENotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("No GP data found"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchTLE(context.Background(), 99999)
	if !errors.Is(err, ErrTLENotFound) {
		t.Fatalf("expected ErrTLENotFound, got %v", err)
	}
}

func TestFetchTLEUpstreamFailures(t *testing.T) {
	t.Run("http error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()
		_, err := NewClient(srv.URL).FetchTLE(context.Background(), 25544)
		if !errors.Is(err, ErrSourceUnavailable) {
			t.Fatalf("expected ErrSourceUnavailable, got %v", err)
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()
		_, err := NewClient(srv.URL).FetchTLE(context.Background(), 25544)
		if !errors.Is(err, ErrSourceUnavailable) {
			t.Fatalf("expected ErrSourceUnavailable, got %v", err)
		}
	})

	t.Run("garbage body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not a TLE</html>"))
		}))
		defer srv.Close()
		_, err := NewClient(srv.URL).FetchTLE(context.Background(), 25544)
		if !errors.Is(err, ErrSourceUnavailable) {
			t.Fatalf("expected ErrSourceUnavailable, got %v", err)
		}
	})

	t.Run("wrong catalog number", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(issResponse()))
		}))
		defer srv.Close()
		_, err := NewClient(srv.URL).FetchTLE(context.Background(), 20580)
		if !errors.Is(err, ErrSourceUnavailable) {
			t.Fatalf("expected ErrSourceUnavailable for mismatched record, got %v", err)
		}
	})
}

func TestFetchTLETimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := client.FetchTLE(context.Background(), 25544)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable on timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout took %v, configured 50ms", elapsed)
	}
}

func TestFetchTLEUsesCache(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(issResponse()))
	}))
	defer srv.Close()

	cache := NewTLECache(time.Minute)
	client := NewClient(srv.URL, WithCache(cache))

	for i := 0; i < 3; i++ {
		if _, err := client.FetchTLE(context.Background(), 25544); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if got := requests.Load(); got != 1 {
		t.Fatalf("expected 1 upstream request, got %d", got)
	}

	hits, misses, _ := cache.Stats()
	if hits != 2 || misses != 1 {
		t.Fatalf("cache stats = %d hits %d misses", hits, misses)
	}
}

func TestFetchTLECacheExpiry(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(issResponse()))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithCache(NewTLECache(10*time.Millisecond)))

	if _, err := client.FetchTLE(context.Background(), 25544); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := client.FetchTLE(context.Background(), 25544); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if got := requests.Load(); got != 2 {
		t.Fatalf("expected expired entry to refetch, got %d requests", got)
	}
}

type fetchRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
	ratio    float64
}

func (r *fetchRecorder) IncTLEFetch(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = make(map[string]int)
	}
	r.outcomes[outcome]++
}

func (r *fetchRecorder) SetTLECacheHitRatio(ratio float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ratio = ratio
}

func TestFetchTLEMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(issResponse()))
	}))
	defer srv.Close()

	rec := &fetchRecorder{}
	client := NewClient(srv.URL, WithCache(NewTLECache(time.Minute)), WithMetricsRecorder(rec))

	if _, err := client.FetchTLE(context.Background(), 25544); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := client.FetchTLE(context.Background(), 25544); err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.outcomes["ok"] != 1 || rec.outcomes["cache_hit"] != 1 {
		t.Fatalf("outcomes = %v", rec.outcomes)
	}
	if rec.ratio != 0.5 {
		t.Fatalf("hit ratio = %v, want 0.5", rec.ratio)
	}
}
