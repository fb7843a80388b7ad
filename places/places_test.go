package places

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"googlemaps.github.io/maps"
)

type fakeSearcher struct {
	mu        sync.Mutex
	results   []maps.PlacesSearchResult
	details   map[string]maps.PlaceDetailsResult
	failIDs   map[string]bool
	searchErr error
	queries   []string
	detailed  []string
}

func (f *fakeSearcher) TextSearch(ctx context.Context, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, r.Query)
	if f.searchErr != nil {
		return maps.PlacesSearchResponse{}, f.searchErr
	}
	return maps.PlacesSearchResponse{Results: f.results}, nil
}

func (f *fakeSearcher) PlaceDetails(ctx context.Context, r *maps.PlaceDetailsRequest) (maps.PlaceDetailsResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailed = append(f.detailed, r.PlaceID)
	if f.failIDs[r.PlaceID] {
		return maps.PlaceDetailsResult{}, errors.New("details unavailable")
	}
	return f.details[r.PlaceID], nil
}

func testConfig() Config {
	return Config{RequestsPerSecond: 1000, Burst: 10}
}

func TestSearchHydratesDetails(t *testing.T) {
	fs := &fakeSearcher{
		results: []maps.PlacesSearchResult{
			{Name: "Rigshospitalet", FormattedAddress: "Blegdamsvej 9, 2100 København", PlaceID: "ChIJ-rigs"},
		},
		details: map[string]maps.PlaceDetailsResult{
			"ChIJ-rigs": {
				Name:                 "Rigshospitalet",
				FormattedAddress:     "Blegdamsvej 9, 2100 København Ø, Denmark",
				FormattedPhoneNumber: "35 45 35 45",
				Website:              "https://www.rigshospitalet.dk/",
			},
		},
	}
	c := NewWithSearcher(fs, testConfig())

	got, err := c.Search(context.Background(), "  Rigshospitalet  ")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 place, got %d", len(got))
	}
	want := Place{
		Name:    "Rigshospitalet",
		Address: "Blegdamsvej 9, 2100 København Ø, Denmark",
		PlaceID: "ChIJ-rigs",
		Phone:   "35 45 35 45",
		Website: "https://www.rigshospitalet.dk/",
	}
	if got[0] != want {
		t.Errorf("expected %+v, got %+v", want, got[0])
	}
	if len(fs.queries) != 1 || fs.queries[0] != "Rigshospitalet" {
		t.Errorf("expected trimmed query, got %v", fs.queries)
	}
}

func TestSearchTruncatesToTopK(t *testing.T) {
	fs := &fakeSearcher{details: map[string]maps.PlaceDetailsResult{}}
	for _, id := range []string{"a", "b", "c", "d"} {
		fs.results = append(fs.results, maps.PlacesSearchResult{Name: "place " + id, PlaceID: id})
	}
	cfg := testConfig()
	cfg.TopK = 2
	c := NewWithSearcher(fs, cfg)

	got, err := c.Search(context.Background(), "Funen")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 places, got %d", len(got))
	}
	if got[0].PlaceID != "a" || got[1].PlaceID != "b" {
		t.Errorf("expected search order to be kept, got %+v", got)
	}
	if len(fs.detailed) != 2 {
		t.Errorf("expected 2 detail lookups, got %d", len(fs.detailed))
	}
}

func TestSearchKeepsResultWhenDetailsFail(t *testing.T) {
	fs := &fakeSearcher{
		results: []maps.PlacesSearchResult{
			{Name: "Helsingør Færgehavn", FormattedAddress: "Færgevej 8, Helsingør", PlaceID: "ferry"},
		},
		failIDs: map[string]bool{"ferry": true},
	}
	c := NewWithSearcher(fs, testConfig())

	got, err := c.Search(context.Background(), "Helsingør ferry")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Address != "Færgevej 8, Helsingør" || got[0].Phone != "" {
		t.Errorf("expected search fields only, got %+v", got)
	}
}

func TestSearchErrors(t *testing.T) {
	c := NewWithSearcher(&fakeSearcher{}, testConfig())
	if _, err := c.Search(context.Background(), "   "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}

	boom := errors.New("REQUEST_DENIED")
	c = NewWithSearcher(&fakeSearcher{searchErr: boom}, testConfig())
	if _, err := c.Search(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped search error, got %v", err)
	}
}

func TestLookupNoResults(t *testing.T) {
	c := NewWithSearcher(&fakeSearcher{}, testConfig())
	got, err := c.Lookup(context.Background(), "nowhere at all")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != NoResults {
		t.Errorf("expected %q, got %q", NoResults, got)
	}
}

func TestFormat(t *testing.T) {
	got := Format([]Place{
		{Name: "A", Address: "Street 1", PlaceID: "id-a", Phone: "123", Website: "https://a"},
		{Name: "B", PlaceID: "id-b"},
	})

	want := "1. A\nAddress: Street 1\nGoogle place ID: id-a\nPhone: 123\nWebsite: https://a\n\n" +
		"2. B\nAddress: Unknown\nGoogle place ID: id-b\nPhone: Unknown\nWebsite: Unknown"
	if got != want {
		t.Errorf("unexpected format:\n%s\nwant:\n%s", got, want)
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("expected no trailing newline")
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error without api key")
	}
}
