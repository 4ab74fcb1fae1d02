package reconcile

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"festivalrisk/internal/models"
	"festivalrisk/internal/store"
)

// memStore keeps committed state in memory and hands out transactions that
// write to a copy, so rollbacks can be observed.
type memStore struct {
	mu          sync.Mutex
	artists     map[string]models.Artist
	stages      map[string]int64
	events      []models.Event
	assessments map[string]models.RiskAssessment
	nextStageID int64
	calls       []string
	failOn      string
	commits     int
	rollbacks   int
}

func newMemStore() *memStore {
	return &memStore{
		artists:     map[string]models.Artist{},
		stages:      map[string]int64{},
		assessments: map[string]models.RiskAssessment{},
		nextStageID: 1,
	}
}

func (m *memStore) BeginSync(context.Context) (store.SyncTx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	tx := &memTx{
		parent:      m,
		artists:     make(map[string]models.Artist, len(m.artists)),
		stages:      make(map[string]int64, len(m.stages)),
		events:      append([]models.Event(nil), m.events...),
		assessments: make(map[string]models.RiskAssessment, len(m.assessments)),
		nextStageID: m.nextStageID,
	}
	for k, v := range m.assessments {
		tx.assessments[k] = v
	}
	for k, v := range m.artists {
		tx.artists[k] = v
	}
	for k, v := range m.stages {
		tx.stages[k] = v
	}
	return tx, nil
}

func (m *memStore) seedArtist(slug, title string) {
	m.artists[slug] = models.Artist{Slug: slug, Title: title}
}

func (m *memStore) seedAssessment(slug string, level models.Level) {
	m.assessments[slug] = models.RiskAssessment{ArtistSlug: slug, RiskLevel: level}
}

func (m *memStore) seedStage(name string) int64 {
	id := m.nextStageID
	m.nextStageID++
	m.stages[name] = id
	return id
}

func (m *memStore) slugs() []string {
	out := make([]string, 0, len(m.artists))
	for slug := range m.artists {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

var errInjected = errors.New("injected failure")

type memTx struct {
	parent      *memStore
	artists     map[string]models.Artist
	stages      map[string]int64
	events      []models.Event
	assessments map[string]models.RiskAssessment
	nextStageID int64
	done        bool
}

func (t *memTx) record(call string) error {
	t.parent.calls = append(t.parent.calls, call)
	if t.parent.failOn == call {
		return errInjected
	}
	return nil
}

func (t *memTx) ArtistIDs(context.Context) (map[string]int64, error) {
	if err := t.record("ArtistIDs"); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(t.artists))
	i := int64(1)
	for slug := range t.artists {
		out[slug] = i
		i++
	}
	return out, nil
}

func (t *memTx) StageIDs(context.Context) (map[string]int64, error) {
	if err := t.record("StageIDs"); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(t.stages))
	for k, v := range t.stages {
		out[k] = v
	}
	return out, nil
}

func (t *memTx) InsertArtists(_ context.Context, artists []models.Artist, now time.Time) (int64, error) {
	if err := t.record("InsertArtists"); err != nil {
		return 0, err
	}
	for _, a := range artists {
		a.CreatedAt, a.UpdatedAt = now, now
		t.artists[a.Slug] = a
	}
	return int64(len(artists)), nil
}

func (t *memTx) UpdateArtists(_ context.Context, artists []models.Artist, now time.Time) (int64, error) {
	if err := t.record("UpdateArtists"); err != nil {
		return 0, err
	}
	for _, a := range artists {
		prev := t.artists[a.Slug]
		a.CreatedAt, a.UpdatedAt = prev.CreatedAt, now
		t.artists[a.Slug] = a
	}
	return int64(len(artists)), nil
}

func (t *memTx) DeleteArtists(_ context.Context, slugs []string) (int64, error) {
	if err := t.record("DeleteArtists"); err != nil {
		return 0, err
	}
	var n int64
	for _, slug := range slugs {
		if _, ok := t.artists[slug]; ok {
			delete(t.artists, slug)
			n++
		}
	}
	// Cascade to events and assessments, as the foreign keys do.
	for slug := range t.assessments {
		if _, ok := t.artists[slug]; !ok {
			delete(t.assessments, slug)
		}
	}
	kept := t.events[:0]
	for _, ev := range t.events {
		if _, ok := t.artists[ev.ArtistSlug]; ok {
			kept = append(kept, ev)
		}
	}
	t.events = kept
	return n, nil
}

func (t *memTx) InsertStages(_ context.Context, names []string) (int64, error) {
	if err := t.record("InsertStages"); err != nil {
		return 0, err
	}
	var n int64
	for _, name := range names {
		if _, ok := t.stages[name]; ok {
			continue
		}
		t.stages[name] = t.nextStageID
		t.nextStageID++
		n++
	}
	return n, nil
}

func (t *memTx) DeleteEvents(context.Context) (int64, error) {
	if err := t.record("DeleteEvents"); err != nil {
		return 0, err
	}
	n := int64(len(t.events))
	t.events = nil
	return n, nil
}

func (t *memTx) InsertEvents(_ context.Context, events []models.Event) (int64, error) {
	if err := t.record("InsertEvents"); err != nil {
		return 0, err
	}
	for i, ev := range events {
		ev.ID = int64(len(t.events) + i + 1)
		t.events = append(t.events, ev)
	}
	return int64(len(events)), nil
}

func (t *memTx) Commit() error {
	if err := t.record("Commit"); err != nil {
		return err
	}
	p := t.parent
	p.artists, p.stages, p.events, p.nextStageID = t.artists, t.stages, t.events, t.nextStageID
	p.assessments = t.assessments
	p.commits++
	t.done = true
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.parent.rollbacks++
	t.done = true
	return nil
}
