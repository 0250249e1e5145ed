// Package recording reads and writes recording bundles: a directory holding a
// script, its location file and a summary.
package recording

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/simonsays/internal/locations"
	"github.com/verte-zerg/simonsays/internal/script"
)

const (
	ScriptFile    = "script.txt"
	LocationsFile = "locations.json"
	InfoFile      = "info.json"

	idPrefix = "rec"
)

var (
	// ErrNotFound is returned when no bundle exists for an id.
	ErrNotFound = errors.New("recording not found")
	// ErrExists is returned when writing over an existing bundle.
	ErrExists = errors.New("recording already exists")
)

// Info is the bundle summary stored in info.json.
type Info struct {
	ID           string  `json:"id"`
	Created      string  `json:"created,omitempty"`
	Duration     float64 `json:"duration"`
	Commands     int     `json:"commands"`
	Locations    int     `json:"locations"`
	Description  string  `json:"description,omitempty"`
	RemappedFrom string  `json:"remapped_from,omitempty"`
}

// Bundle is a recording on disk.
type Bundle struct {
	ID   string
	Dir  string
	Info Info
}

// ScriptPath returns the script file path.
func (b Bundle) ScriptPath() string {
	return filepath.Join(b.Dir, ScriptFile)
}

// LocationsPath returns the location file path.
func (b Bundle) LocationsPath() string {
	return filepath.Join(b.Dir, LocationsFile)
}

// LoadScript reads and parses the bundle script.
func (b Bundle) LoadScript() (script.Script, string, error) {
	data, err := os.ReadFile(b.ScriptPath())
	if err != nil {
		return script.Script{}, "", fmt.Errorf("failed to read script: %w", err)
	}
	s, err := script.Parse(string(data))
	if err != nil {
		return script.Script{}, string(data), fmt.Errorf("%s: %w", b.ScriptPath(), err)
	}
	return s, string(data), nil
}

// LoadLocations reads the bundle location file. A missing file yields an empty store.
func (b Bundle) LoadLocations() (locations.Store, locations.Meta, error) {
	store, meta, err := locations.LoadFile(b.LocationsPath())
	if errors.Is(err, fs.ErrNotExist) {
		empty, _ := locations.New()
		return empty, nil, nil
	}
	return store, meta, err
}

// Open loads the bundle id under root. The script file must exist; info.json is optional.
func Open(root, id string) (Bundle, error) {
	if err := validateID(id); err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	dir := filepath.Join(root, id)
	if _, err := os.Stat(filepath.Join(dir, ScriptFile)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Bundle{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Bundle{}, err
	}
	info, err := readInfo(dir)
	if err != nil {
		return Bundle{}, err
	}
	if info.ID == "" {
		info.ID = id
	}
	return Bundle{ID: id, Dir: dir, Info: info}, nil
}

// validateID accepts ids that name a single visible directory under the root.
func validateID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("invalid recording id %q", id)
	}
	return nil
}

func readInfo(dir string) (Info, error) {
	data, err := os.ReadFile(filepath.Join(dir, InfoFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, nil
		}
		return Info{}, fmt.Errorf("failed to read info: %w", err)
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, fmt.Errorf("failed to decode %s: %w", filepath.Join(dir, InfoFile), err)
	}
	return info, nil
}

// List returns every bundle under root ordered by numeric id suffix, then name.
// A missing root yields no bundles.
func List(root string) ([]Bundle, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	var bundles []Bundle
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		b, err := Open(root, entry.Name())
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	sort.Slice(bundles, func(i, j int) bool {
		ni, oki := idNumber(bundles[i].ID)
		nj, okj := idNumber(bundles[j].ID)
		if oki && okj && ni != nj {
			return ni < nj
		}
		if oki != okj {
			return oki
		}
		return bundles[i].ID < bundles[j].ID
	})
	return bundles, nil
}

func idNumber(id string) (int, bool) {
	if !strings.HasPrefix(id, idPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, idPrefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// NextID returns rec<N> where N is one more than the highest existing suffix.
func NextID(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to list recordings: %w", err)
	}
	highest := 0
	for _, entry := range entries {
		if n, ok := idNumber(entry.Name()); ok && n > highest {
			highest = n
		}
	}
	return idPrefix + strconv.Itoa(highest+1), nil
}

// Contents is everything needed to write a bundle.
type Contents struct {
	Info      Info
	Script    string
	Locations locations.Store
	Meta      locations.Meta
}

// Write stores contents as a new bundle. An empty Info.ID takes NextID. The bundle
// is staged in a hidden directory and renamed into place; an existing id is never
// overwritten.
func Write(root string, c Contents) (Bundle, error) {
	if c.Info.ID != "" {
		if err := validateID(c.Info.ID); err != nil {
			return Bundle{}, err
		}
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return Bundle{}, fmt.Errorf("failed to create recordings dir: %w", err)
	}
	id := c.Info.ID
	if id == "" {
		next, err := NextID(root)
		if err != nil {
			return Bundle{}, err
		}
		id = next
	}
	dir := filepath.Join(root, id)
	if _, err := os.Stat(dir); err == nil {
		return Bundle{}, fmt.Errorf("%w: %s", ErrExists, id)
	}

	info := c.Info
	info.ID = id
	if info.Created == "" {
		info.Created = time.Now().Format(time.RFC3339)
	}
	info.Locations = c.Locations.Len()
	if info.Commands == 0 && c.Script != "" {
		if s, err := script.Parse(c.Script); err == nil {
			info.Commands = s.Len()
		}
	}

	staging, err := os.MkdirTemp(root, ".staging-*")
	if err != nil {
		return Bundle{}, fmt.Errorf("failed to create staging dir: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(staging)
	}()

	if err := os.WriteFile(filepath.Join(staging, ScriptFile), []byte(c.Script), 0o644); err != nil {
		return Bundle{}, fmt.Errorf("failed to write script: %w", err)
	}
	if err := locations.SaveFile(filepath.Join(staging, LocationsFile), c.Locations, c.Meta); err != nil {
		return Bundle{}, err
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return Bundle{}, fmt.Errorf("failed to encode info: %w", err)
	}
	if err := os.WriteFile(filepath.Join(staging, InfoFile), append(data, '\n'), 0o644); err != nil {
		return Bundle{}, fmt.Errorf("failed to write info: %w", err)
	}
	if err := os.Rename(staging, dir); err != nil {
		return Bundle{}, fmt.Errorf("failed to publish recording %s: %w", id, err)
	}
	return Bundle{ID: id, Dir: dir, Info: info}, nil
}
