package statestore

import (
	"os"
	"path/filepath"
	"testing"

	"momentum-engine/internal/models"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := Document{Positions: map[string]models.Position{
		"BTCUSDT": Idle("acct1", "BTCUSDT"),
	}}
	if err := store.Save("acct1", doc); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	loaded, err := store.Load("acct1")
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if loaded.Positions["BTCUSDT"].Symbol != "BTCUSDT" {
		t.Fatalf("unexpected loaded document: %+v", loaded)
	}

	if _, err := os.Stat(filepath.Join(dir, "account-data-acct1.json")); err != nil {
		t.Fatalf("expected persisted file, got %v", err)
	}
}

func TestLoad_MissingFileReturnsEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc, err := store.Load("nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Positions) != 0 {
		t.Fatalf("expected empty positions, got %+v", doc.Positions)
	}
}

func Idle(account, symbol string) models.Position {
	return models.Idle(account, symbol)
}
