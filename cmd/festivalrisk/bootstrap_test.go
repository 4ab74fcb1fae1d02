package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadContactSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contacts.yaml")
	body := `contacts:
  - name: Vagttelefon
    phone: "51 16 36 18"
    role: Vagttelefon 24-7
    category: BØGE STAGE SECURITY
    sort_order: 10
  - name: Kim Mosfelt
    phone: "26 22 22 98"
    category: BØGE STAGE MANAGER
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	contacts, err := loadContactSeed(path)
	if err != nil {
		t.Fatalf("loadContactSeed returned error: %v", err)
	}
	if len(contacts) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(contacts))
	}
	if contacts[0].Phone != "51 16 36 18" || contacts[0].SortOrder != 10 {
		t.Fatalf("unexpected first contact %+v", contacts[0])
	}
	if contacts[1].Category != "BØGE STAGE MANAGER" {
		t.Fatalf("unexpected category %q", contacts[1].Category)
	}
}

func TestLoadContactSeedErrors(t *testing.T) {
	if _, err := loadContactSeed(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("contacts: [\n"), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := loadContactSeed(path); err == nil {
		t.Fatal("expected parse error")
	}
}
