// Package catalog holds the immutable set of units players draw hands from.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/mcoot/towerduel/internal/dependencies/random"
	"github.com/mcoot/towerduel/internal/model"
	"github.com/mcoot/towerduel/internal/storage"
)

//go:embed units.json
var defaultUnits []byte

// Catalog is a validated, read-only list of units. Safe for concurrent use.
type Catalog struct {
	units  []model.Unit
	byName map[string]int
}

// New validates units and returns a catalog holding a private copy of them
func New(units []model.Unit) (*Catalog, error) {
	if len(units) == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", model.ErrInvalidCatalog)
	}

	byName := make(map[string]int, len(units))
	for i, u := range units {
		if err := validate(u); err != nil {
			return nil, fmt.Errorf("%w: unit %d: %v", model.ErrInvalidCatalog, i, err)
		}
		key := strings.ToLower(u.Name)
		if _, dup := byName[key]; dup {
			return nil, fmt.Errorf("%w: duplicate unit name %q", model.ErrInvalidCatalog, u.Name)
		}
		byName[key] = i
	}

	return &Catalog{
		units:  slices.Clone(units),
		byName: byName,
	}, nil
}

func validate(u model.Unit) error {
	switch {
	case u.IsZero():
		return fmt.Errorf("empty unit")
	case strings.TrimSpace(u.Name) == "":
		return fmt.Errorf("missing name")
	case u.Glyph == "":
		return fmt.Errorf("%q: missing emoji", u.Name)
	case u.Cost < 0:
		return fmt.Errorf("%q: negative cost", u.Name)
	case u.Health <= 0:
		return fmt.Errorf("%q: health must be positive", u.Name)
	case u.Power < 0:
		return fmt.Errorf("%q: negative power", u.Name)
	case u.Size <= 0:
		return fmt.Errorf("%q: size must be positive", u.Name)
	case u.Speed <= 0:
		return fmt.Errorf("%q: speed must be positive", u.Name)
	case !u.AttackType.Valid():
		return fmt.Errorf("%q: unknown attack type %q", u.Name, u.AttackType)
	}
	return nil
}

// Default returns the built-in catalog
func Default() *Catalog {
	cat, err := Parse(defaultUnits)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return cat
}

// Parse builds a catalog from a JSON array of units
func Parse(data []byte) (*Catalog, error) {
	var units []model.Unit
	if err := json.Unmarshal(data, &units); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidCatalog, err)
	}
	return New(units)
}

// LoadFile loads a catalog from a JSON file containing an array of units
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadDir loads a catalog from a directory holding one JSON unit per *.json file.
// Files are read in name order.
func LoadDir(dir string) (*Catalog, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	units := make([]model.Unit, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var u model.Unit
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", model.ErrInvalidCatalog, filepath.Base(path), err)
		}
		units = append(units, u)
	}
	return New(units)
}

// Load picks a loader based on the source: a directory, a JSON file, or
// the built-in catalog when source is empty
func Load(source string) (*Catalog, error) {
	if source == "" {
		return Default(), nil
	}
	info, err := os.Stat(source)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return LoadDir(source)
	}
	return LoadFile(source)
}

// LoadFromStorage loads the catalog previously published to storage
func LoadFromStorage(ctx context.Context, store storage.Storage) (*Catalog, error) {
	units, err := store.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return New(units)
}

// Publish saves the catalog's units to storage
func Publish(ctx context.Context, store storage.Storage, cat *Catalog) error {
	return store.SaveCatalog(ctx, cat.units)
}

// Units returns a copy of all units in catalog order
func (c *Catalog) Units() []model.Unit {
	return slices.Clone(c.units)
}

// Len returns the number of units
func (c *Catalog) Len() int {
	return len(c.units)
}

// Lookup finds a unit by name, ignoring case
func (c *Catalog) Lookup(name string) (model.Unit, bool) {
	i, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return model.Unit{}, false
	}
	return c.units[i], true
}

// DrawHand returns n distinct units chosen uniformly at random.
// It returns false when the catalog holds fewer than n units.
func (c *Catalog) DrawHand(rnd random.Random, n int) ([]model.Unit, bool) {
	if n < 0 || n > len(c.units) {
		return nil, false
	}
	deck := slices.Clone(c.units)
	random.Shuffle(rnd, deck)
	return deck[:n:n], true
}
