package locations

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/verte-zerg/simonsays/internal/model"
)

// MetaKey is the reserved top-level key holding free-form session metadata.
const MetaKey = "$meta"

// Meta is free-form session metadata stored next to the locations.
type Meta map[string]any

// Load reads a location file. Key order in the file becomes creation order.
func Load(r io.Reader) (Store, Meta, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Store{}, nil, fmt.Errorf("failed to read locations: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return Store{}, nil, fmt.Errorf("locations file is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Store{}, nil, fmt.Errorf("locations file must be a JSON object")
	}

	var (
		locs    []Location
		meta    Meta
		seen    = map[string]struct{}{}
		loadErr error
	)
	root.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if _, dup := seen[name]; dup {
			loadErr = fmt.Errorf("duplicate key %q", name)
			return false
		}
		seen[name] = struct{}{}

		if name == MetaKey {
			if !value.IsObject() {
				loadErr = fmt.Errorf("%s must be an object", MetaKey)
				return false
			}
			m, ok := value.Value().(map[string]any)
			if !ok {
				loadErr = fmt.Errorf("%s must be an object", MetaKey)
				return false
			}
			meta = m
			return true
		}

		p, err := decodePoint(value)
		if err != nil {
			loadErr = fmt.Errorf("location %q: %w", name, err)
			return false
		}
		locs = append(locs, Location{Name: name, Point: p})
		return true
	})
	if loadErr != nil {
		return Store{}, nil, loadErr
	}
	store, err := New(locs...)
	if err != nil {
		return Store{}, nil, err
	}
	return store, meta, nil
}

func decodePoint(value gjson.Result) (model.Point, error) {
	if !value.IsObject() {
		return model.Point{}, fmt.Errorf("expected an object with x and y")
	}
	x := value.Get("x")
	y := value.Get("y")
	if x.Type != gjson.Number || y.Type != gjson.Number {
		return model.Point{}, fmt.Errorf("x and y must be numbers")
	}
	return model.Point{X: x.Float(), Y: y.Float()}, nil
}

// Save writes the store as a location file, preserving creation order.
func Save(w io.Writer, s Store, meta Meta) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("{"); err != nil {
		return err
	}
	first := true
	sep := func() error {
		if first {
			first = false
			_, err := bw.WriteString("\n  ")
			return err
		}
		_, err := bw.WriteString(",\n  ")
		return err
	}
	if len(meta) > 0 {
		raw, err := json.MarshalIndent(map[string]any(meta), "  ", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", MetaKey, err)
		}
		if err := sep(); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(bw, "%q: %s", MetaKey, raw); err != nil {
			return err
		}
	}
	for _, loc := range s.Locations() {
		key, err := json.Marshal(loc.Name)
		if err != nil {
			return err
		}
		x, err := json.Marshal(loc.Point.X)
		if err != nil {
			return err
		}
		y, err := json.Marshal(loc.Point.Y)
		if err != nil {
			return err
		}
		if err := sep(); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(bw, `%s: {"x": %s, "y": %s}`, key, x, y); err != nil {
			return err
		}
	}
	if !first {
		if _, err := bw.WriteString("\n"); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("}\n"); err != nil {
		return err
	}
	return bw.Flush()
}

// LoadFile reads a location file from disk.
func LoadFile(path string) (Store, Meta, error) {
	file, err := os.Open(path)
	if err != nil {
		return Store{}, nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only locations file.
			_ = cerr
		}
	}()
	store, meta, err := Load(file)
	if err != nil {
		return Store{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return store, meta, nil
}

// SaveFile writes a location file through a temp file and rename.
func SaveFile(path string, s Store, meta Meta) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create locations dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "locations-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp locations file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := Save(tmpFile, s, meta); err != nil {
		return fmt.Errorf("failed to write locations: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close locations: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write locations: %w", err)
	}
	return nil
}
