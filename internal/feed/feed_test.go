package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const programJSON = `{
  "data": {
    "content": {
      "_artists": [
        {
          "id": 101,
          "slug": "band-x",
          "title": "Band X",
          "nationality": {"nationality": "DK"},
          "thumbnail": {"url": "https://cdn.example/x-thumb.jpg"},
          "previewText": "Loud.",
          "spotifyLink": "https://open.spotify.com/artist/x",
          "startTime": "2025-08-09T23:30:00",
          "endTime": null,
          "location": {"name": "Main"}
        },
        {
          "id": "102",
          "slug": "band-y",
          "title": "Band Y",
          "images": [{"url": "https://cdn.example/y.jpg"}],
          "startTime": "2025-08-10T02:15:00",
          "endTime": "2025-08-10T03:00:00",
          "location": {"title": "Side"}
        },
        {
          "id": 103,
          "slug": "band-z",
          "title": "Band Z",
          "previewImage": {"url": "https://cdn.example/z.jpg"},
          "startTime": "2025-08-09T18:00:00"
        },
        {"id": 104, "slug": "no-show", "title": "No Show", "nationality": "SE"},
        {"id": 105, "title": "Missing Slug"},
        {"id": 101, "slug": "band-x-again", "title": "Band X again"},
        "garbage",
        null
      ]
    }
  }
}`

func TestParse(t *testing.T) {
	snap, err := Parse([]byte(programJSON))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if len(snap.Artists) != 4 {
		t.Fatalf("expected 4 artists, got %d: %#v", len(snap.Artists), snap.Artists)
	}
	x := snap.Artists[0]
	if x.Slug != "band-x" || x.Nationality != "DK" || x.ImageURL != "https://cdn.example/x-thumb.jpg" || x.Description != "Loud." {
		t.Fatalf("unexpected first artist: %#v", x)
	}
	if snap.Artists[1].ImageURL != "https://cdn.example/y.jpg" {
		t.Fatalf("expected images fallback, got %q", snap.Artists[1].ImageURL)
	}
	if snap.Artists[2].ImageURL != "https://cdn.example/z.jpg" {
		t.Fatalf("expected previewImage fallback, got %q", snap.Artists[2].ImageURL)
	}
	if snap.Artists[3].Nationality != "" {
		t.Fatalf("expected non-object nationality to be ignored, got %q", snap.Artists[3].Nationality)
	}

	if len(snap.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(snap.Events))
	}
	want := []Event{
		{ArtistSlug: "band-x", StageName: "Main", StartTime: "2025-08-09T23:30:00"},
		{ArtistSlug: "band-y", StageName: "Side", StartTime: "2025-08-10T02:15:00", EndTime: "2025-08-10T03:00:00"},
		{ArtistSlug: "band-z", StageName: "", StartTime: "2025-08-09T18:00:00"},
	}
	for i, w := range want {
		if snap.Events[i] != w {
			t.Fatalf("event %d: expected %#v, got %#v", i, w, snap.Events[i])
		}
	}

	if len(snap.Slugs) != 4 {
		t.Fatalf("expected 4 slugs, got %d", len(snap.Slugs))
	}
	if _, ok := snap.Slugs["band-x-again"]; ok {
		t.Fatalf("duplicate id must not contribute a slug")
	}

	reasons := map[string]int{}
	for _, s := range snap.Skipped {
		reasons[s.Reason]++
	}
	if reasons[SkipMissingFields] != 1 || reasons[SkipDuplicateID] != 1 || reasons[SkipNotObject] != 2 {
		t.Fatalf("unexpected skip reasons: %v", reasons)
	}
}

func TestParseToleratesOddOptionalFields(t *testing.T) {
	doc := `{"data": {"content": {"_artists": [
		{"id": 1, "slug": "band-a", "title": "Band A", "previewText": {"html": "<p>x</p>"}, "spotifyLink": false},
		{"id": 2, "slug": "band-b", "title": "Band B", "startTime": 0, "endTime": {"at": "later"}},
		{"id": 3, "slug": 42, "title": "Forty Two", "previewText": ["a"], "spotifyLink": null}
	]}}}`

	snap, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(snap.Skipped) != 0 {
		t.Fatalf("expected no skips, got %#v", snap.Skipped)
	}
	if len(snap.Artists) != 3 || len(snap.Slugs) != 3 {
		t.Fatalf("expected 3 artists and slugs, got %d and %d", len(snap.Artists), len(snap.Slugs))
	}
	a := snap.Artists[0]
	if a.Description != "" || a.SpotifyLink != "" {
		t.Fatalf("expected odd optional fields to read as empty, got %#v", a)
	}
	if _, ok := snap.Slugs["42"]; !ok {
		t.Fatalf("expected numeric slug to be kept, got %v", snap.Slugs)
	}
	if len(snap.Events) != 1 || snap.Events[0].StartTime != "0" || snap.Events[0].EndTime != "" {
		t.Fatalf("unexpected events: %#v", snap.Events)
	}
}

func TestParseMalformedDocument(t *testing.T) {
	if _, err := Parse([]byte(`{"data": [`)); !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestParseEmptyProgram(t *testing.T) {
	snap, err := Parse([]byte(`{"data": {"content": {"_artists": []}}}`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(snap.Artists) != 0 || len(snap.Events) != 0 {
		t.Fatalf("expected empty snapshot, got %#v", snap)
	}
}

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(programJSON))
	}))
	defer srv.Close()

	snap, err := NewClient(srv.URL, time.Second).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(snap.Artists) != 4 {
		t.Fatalf("expected 4 artists, got %d", len(snap.Artists))
	}
}

func TestClientFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusBadGateway)
			},
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>maintenance</html>"))
			},
		},
		{
			name:    "oversized document",
			timeout: 5 * time.Second,
			handler: func(w http.ResponseWriter, r *http.Request) {
				pad := strings.Repeat(" ", MaxDocumentSize)
				_, _ = w.Write([]byte(pad + programJSON))
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
				_, _ = w.Write([]byte(programJSON))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			timeout := tc.timeout
			if timeout == 0 {
				timeout = 50 * time.Millisecond
			}
			_, err := NewClient(srv.URL, timeout).Fetch(context.Background())
			if !errors.Is(err, ErrFetch) {
				t.Fatalf("expected ErrFetch, got %v", err)
			}
		})
	}
}
