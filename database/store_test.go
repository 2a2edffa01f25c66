package database

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"puntibot/database/model"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	if err := Init(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	docs := Documents{
		Points:    map[string]int{"@anna": 5, "@bruno": 2},
		LastAward: map[string]string{"@anna": "2026-08-30", "@bruno": "2026-08-29"},
		Victories: []model.Victory{{Winner: "@anna", Date: "2026-08-30"}},
		Settings:  model.Settings{ChatID: -100123456},
	}
	if err := Save(docs); err != nil {
		t.Fatal(err)
	}

	got := Load()
	if !reflect.DeepEqual(got, docs) {
		t.Errorf("Load() = %+v, want %+v", got, docs)
	}
}

func TestLoadMissingFilesReturnsDefaults(t *testing.T) {
	if err := Init(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	got := Load()
	if len(got.Points) != 0 {
		t.Errorf("Points = %v, want empty", got.Points)
	}
	if len(got.LastAward) != 0 {
		t.Errorf("LastAward = %v, want empty", got.LastAward)
	}
	if len(got.Victories) != 0 {
		t.Errorf("Victories = %v, want empty", got.Victories)
	}
	if got.Settings.ChatID != 0 {
		t.Errorf("Settings.ChatID = %d, want 0", got.Settings.ChatID)
	}
}

func TestLoadCorruptFileFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir); err != nil {
		t.Fatal(err)
	}

	docs := Documents{
		Points:    map[string]int{"@anna": 3},
		LastAward: map[string]string{"@anna": "2026-08-30"},
		Victories: []model.Victory{},
		Settings:  model.Settings{ChatID: 7},
	}
	if err := Save(docs); err != nil {
		t.Fatal(err)
	}

	// corrupt a single document, the others must survive
	if err := os.WriteFile(filepath.Join(dir, "points.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := Load()
	if len(got.Points) != 0 {
		t.Errorf("Points = %v, want empty after corruption", got.Points)
	}
	if got.LastAward["@anna"] != "2026-08-30" {
		t.Errorf("LastAward = %v, want intact", got.LastAward)
	}
	if got.Settings.ChatID != 7 {
		t.Errorf("Settings.ChatID = %d, want 7", got.Settings.ChatID)
	}
}

func TestSaveOverwritesPreviousState(t *testing.T) {
	if err := Init(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	first := Documents{
		Points:    map[string]int{"@anna": 1, "@bruno": 1},
		LastAward: map[string]string{"@anna": "2026-08-29", "@bruno": "2026-08-29"},
		Victories: []model.Victory{},
		Settings:  model.Settings{},
	}
	if err := Save(first); err != nil {
		t.Fatal(err)
	}

	second := Documents{
		Points:    map[string]int{"@anna": 2},
		LastAward: map[string]string{"@anna": "2026-08-30"},
		Victories: []model.Victory{},
		Settings:  model.Settings{ChatID: 42},
	}
	if err := Save(second); err != nil {
		t.Fatal(err)
	}

	got := Load()
	if !reflect.DeepEqual(got, second) {
		t.Errorf("Load() = %+v, want %+v", got, second)
	}
}
