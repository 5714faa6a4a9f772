package plants

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ManifestEntry names a species and the sprite a renderer may use for it.
type ManifestEntry struct {
	Name   string
	Sprite string
}

// fallbackManifestSize covers three species for tiers 1-9 plus the capstone.
const fallbackManifestSize = 28

// LoadManifest reads a plant manifest CSV with "Plant Name" and "Sprite Path"
// columns. A missing file is not an error: generated names are returned
// instead so a run can always start.
func LoadManifest(path string) ([]ManifestEntry, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("plant manifest not found, using generated names", "path", path)
		return FallbackManifest(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	return ParseManifest(f)
}

// ParseManifest decodes manifest CSV from r.
func ParseManifest(r io.Reader) ([]ManifestEntry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read manifest header: %w", err)
	}
	nameCol, spriteCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case "Plant Name":
			nameCol = i
		case "Sprite Path":
			spriteCol = i
		}
	}
	if nameCol < 0 {
		return nil, fmt.Errorf("manifest missing %q column", "Plant Name")
	}

	var entries []ManifestEntry
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read manifest row: %w", err)
		}
		name := strings.TrimSpace(row[nameCol])
		if name == "" {
			continue
		}
		entry := ManifestEntry{Name: name}
		if spriteCol >= 0 && spriteCol < len(row) {
			entry.Sprite = cleanSpritePath(row[spriteCol])
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// FallbackManifest returns generated names plant0..plant27.
func FallbackManifest() []ManifestEntry {
	entries := make([]ManifestEntry, fallbackManifestSize)
	for i := range entries {
		entries[i] = ManifestEntry{
			Name:   fmt.Sprintf("plant%d", i),
			Sprite: filepath.Join("assets", fmt.Sprintf("plant%d.png", i)),
		}
	}
	return entries
}

func cleanSpritePath(raw string) string {
	p := strings.TrimLeft(strings.TrimSpace(raw), `/\`)
	if p == "" {
		return ""
	}
	return filepath.Clean(filepath.FromSlash(strings.ReplaceAll(p, `\`, "/")))
}
