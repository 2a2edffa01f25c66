package database

import (
	"fmt"
	"os"
	"path/filepath"

	"puntibot/database/model"
	"puntibot/logger"
	"puntibot/util/common"

	json "github.com/goccy/go-json"
)

const (
	pointsFile    = "points.json"
	lastAwardFile = "lastPointDate.json"
	victoriesFile = "victories.json"
	settingsFile  = "config.json"
)

var dataDir string

// Documents is the whole persisted state: cumulative points per user, the
// date of each user's last award, the victory log and the report settings.
type Documents struct {
	Points    map[string]int
	LastAward map[string]string
	Victories []model.Victory
	Settings  model.Settings
}

func Init(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	dataDir = dir
	return nil
}

// Load reads all four documents. A missing or unparseable file never fails
// the load: the corresponding document falls back to its empty default, so
// the process keeps running after corruption or on first start.
func Load() Documents {
	docs := Documents{
		Points:    map[string]int{},
		LastAward: map[string]string{},
		Victories: []model.Victory{},
	}

	var points map[string]int
	if readDocument(pointsFile, &points) && points != nil {
		docs.Points = points
	}

	var lastAward map[string]string
	if readDocument(lastAwardFile, &lastAward) && lastAward != nil {
		docs.LastAward = lastAward
	}

	var victories []model.Victory
	if readDocument(victoriesFile, &victories) && victories != nil {
		docs.Victories = victories
	}

	var settings model.Settings
	if readDocument(settingsFile, &settings) {
		docs.Settings = settings
	}

	return docs
}

// Save rewrites all four documents. Each file is written to a temp file and
// renamed into place, so a crash mid-save leaves the previous content intact.
func Save(docs Documents) error {
	return common.Combine(
		writeDocument(pointsFile, docs.Points),
		writeDocument(lastAwardFile, docs.LastAward),
		writeDocument(victoriesFile, docs.Victories),
		writeDocument(settingsFile, docs.Settings),
	)
}

func readDocument(name string, out any) bool {
	data, err := os.ReadFile(filepath.Join(dataDir, name))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warningf("read %s failed: %v, using default", name, err)
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.Warningf("parse %s failed: %v, using default", name, err)
		return false
	}
	return true
}

func writeDocument(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(dataDir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
