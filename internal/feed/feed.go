// Package feed fetches the festival program document and flattens it into
// artist and event records.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrFetch wraps every failure to obtain or decode the program document.
var ErrFetch = errors.New("feed fetch failed")

// DefaultTimeout bounds a single program download.
const DefaultTimeout = 30 * time.Second

// MaxDocumentSize caps the program document read from the feed.
const MaxDocumentSize = 32 << 20

// Skip reasons reported in Snapshot.Skipped.
const (
	SkipNotObject     = "not_object"
	SkipMissingFields = "missing_fields"
	SkipDuplicateID   = "duplicate_id"
)

// Artist is one performer as published by the feed.
type Artist struct {
	Slug        string
	Title       string
	Nationality string
	Description string
	ImageURL    string
	SpotifyLink string
}

// Event is a raw schedule entry. Times are unparsed feed strings and the
// stage name is empty when the feed carries no location.
type Event struct {
	ArtistSlug string
	StageName  string
	StartTime  string
	EndTime    string
}

// Skip describes a feed item that was left out.
type Skip struct {
	Index  int
	Ref    string
	Reason string
}

// Snapshot is the normalised content of one program document.
type Snapshot struct {
	Artists []Artist
	Events  []Event
	Slugs   map[string]struct{}
	Skipped []Skip
}

// Client downloads the program document.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a feed client with a fixed request timeout.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch downloads and flattens the program.
func (c *Client) Fetch(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: create request: %v", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "festivalrisk-sync/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: send request: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Snapshot{}, fmt.Errorf("%w: %s - %s", ErrFetch, resp.Status, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	if len(body) > MaxDocumentSize {
		return Snapshot{}, fmt.Errorf("%w: document exceeds %d bytes", ErrFetch, MaxDocumentSize)
	}
	return Parse(body)
}

type document struct {
	Data struct {
		Content struct {
			Artists []json.RawMessage `json:"_artists"`
		} `json:"content"`
	} `json:"data"`
}

// item keeps every property raw so that one oddly typed optional field
// cannot reject the whole artist.
type item struct {
	ID           json.RawMessage `json:"id"`
	Slug         json.RawMessage `json:"slug"`
	Title        json.RawMessage `json:"title"`
	Nationality  json.RawMessage `json:"nationality"`
	Thumbnail    json.RawMessage `json:"thumbnail"`
	Images       json.RawMessage `json:"images"`
	PreviewImage json.RawMessage `json:"previewImage"`
	PreviewText  json.RawMessage `json:"previewText"`
	SpotifyLink  json.RawMessage `json:"spotifyLink"`
	StartTime    json.RawMessage `json:"startTime"`
	EndTime      json.RawMessage `json:"endTime"`
	Location     json.RawMessage `json:"location"`
}

// Parse flattens a program document. Items that are not objects, lack an
// id, slug or title, or repeat an earlier id are skipped and reported.
func Parse(body []byte) (Snapshot, error) {
	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decode document: %v", ErrFetch, err)
	}

	snap := Snapshot{Slugs: make(map[string]struct{})}
	seen := make(map[string]struct{})
	for i, raw := range doc.Data.Content.Artists {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			snap.Skipped = append(snap.Skipped, Skip{Index: i, Reason: SkipNotObject})
			continue
		}
		var it item
		if err := json.Unmarshal(trimmed, &it); err != nil {
			snap.Skipped = append(snap.Skipped, Skip{Index: i, Reason: SkipNotObject})
			continue
		}

		id := scalar(it.ID)
		slug := scalar(it.Slug)
		title := scalar(it.Title)
		if id == "" || slug == "" || title == "" {
			snap.Skipped = append(snap.Skipped, Skip{Index: i, Ref: firstNonEmpty(slug, id, title), Reason: SkipMissingFields})
			continue
		}
		if _, dup := seen[id]; dup {
			snap.Skipped = append(snap.Skipped, Skip{Index: i, Ref: slug, Reason: SkipDuplicateID})
			continue
		}
		seen[id] = struct{}{}
		snap.Slugs[slug] = struct{}{}

		snap.Artists = append(snap.Artists, Artist{
			Slug:        slug,
			Title:       title,
			Nationality: field(it.Nationality, "nationality"),
			Description: text(it.PreviewText),
			ImageURL:    imageURL(it),
			SpotifyLink: scalar(it.SpotifyLink),
		})

		if start := scalar(it.StartTime); start != "" {
			snap.Events = append(snap.Events, Event{
				ArtistSlug: slug,
				StageName:  firstNonEmpty(field(it.Location, "name"), field(it.Location, "title")),
				StartTime:  start,
				EndTime:    scalar(it.EndTime),
			})
		}
	}
	return snap, nil
}

func imageURL(it item) string {
	if u := field(it.Thumbnail, "url"); u != "" {
		return u
	}
	var images []json.RawMessage
	if json.Unmarshal(it.Images, &images) == nil && len(images) > 0 {
		if u := field(images[0], "url"); u != "" {
			return u
		}
	}
	return field(it.PreviewImage, "url")
}

// field reads a string property from a JSON object, ignoring anything
// that is not an object.
func field(raw json.RawMessage, key string) string {
	var obj map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &obj) != nil {
		return ""
	}
	return strings.TrimSpace(scalar(obj[key]))
}

// scalar renders a JSON string or number as text.
func scalar(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

// text reads a JSON string without trimming it. Anything else is empty.
func text(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
