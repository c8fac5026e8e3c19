// internal/flags/flags.go
//
// Country catalog for the game engine.
//
// Responsibilities:
//   - Hold the fixed, read-only table of selectable countries.
//   - Map each country to its flag asset reference and accessibility text.
//   - Load the table from an override file or fall back to assets.Countries.
//
// Catalog file format (one entry per line):
//   name|asset|description
// Blank lines and lines starting with "#" are ignored. An empty asset defaults
// to the country name; an empty description reads as "Unknown flag".
//
// Constraints:
//   • Names are unique (case-sensitive, as displayed).
//   • A catalog holds at least MinCountries entries so a round can be drawn.
//   • A Catalog is never mutated after construction.

package flags

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/guesstheflag/assets"
)

// UnknownDescription is returned by Describe for names missing from the catalog.
const UnknownDescription = "Unknown flag"

// MinCountries is the smallest catalog that can fill a round.
const MinCountries = 3

// ErrTooFew is returned when a catalog cannot fill a round.
var ErrTooFew = errors.New("flags: catalog needs at least 3 countries")

// Flag is one catalog entry.
type Flag struct {
	Name        string `json:"name"`
	Asset       string `json:"asset"`
	Description string `json:"description"`
}

// Catalog is an immutable, ordered set of flags.
type Catalog struct {
	flags  []Flag
	byName map[string]int
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the embedded catalog, parsed once.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Parse(strings.NewReader(assets.Countries))
	})
	return defaultCat, defaultErr
}

// Load reads a catalog from path.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse reads catalog lines from r.
func Parse(r io.Reader) (*Catalog, error) {
	var list []Flag
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		parts := strings.SplitN(s, "|", 3)
		f := Flag{Name: strings.TrimSpace(parts[0])}
		if f.Name == "" {
			return nil, fmt.Errorf("line %d: missing country name", line)
		}
		if len(parts) > 1 {
			f.Asset = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			f.Description = strings.TrimSpace(parts[2])
		}
		list = append(list, f)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return New(list)
}

// New builds a catalog from entries, preserving their order.
func New(entries []Flag) (*Catalog, error) {
	c := &Catalog{
		flags:  make([]Flag, 0, len(entries)),
		byName: make(map[string]int, len(entries)),
	}
	for _, f := range entries {
		if f.Name == "" {
			return nil, errors.New("flags: empty country name")
		}
		if _, dup := c.byName[f.Name]; dup {
			return nil, fmt.Errorf("flags: duplicate country %q", f.Name)
		}
		if f.Asset == "" {
			f.Asset = f.Name
		}
		c.byName[f.Name] = len(c.flags)
		c.flags = append(c.flags, f)
	}
	if len(c.flags) < MinCountries {
		return nil, ErrTooFew
	}
	return c, nil
}

// Len reports the number of countries.
func (c *Catalog) Len() int { return len(c.flags) }

// Names returns the country identifiers in catalog order.
// The slice is a copy; callers may shuffle it.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.flags))
	for i, f := range c.flags {
		out[i] = f.Name
	}
	return out
}

// All returns a copy of every entry in catalog order.
func (c *Catalog) All() []Flag {
	return append([]Flag(nil), c.flags...)
}

// Lookup returns the entry for name.
func (c *Catalog) Lookup(name string) (Flag, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Flag{}, false
	}
	return c.flags[i], true
}

// Asset returns the image reference for name, or "" if unknown.
func (c *Catalog) Asset(name string) string {
	f, _ := c.Lookup(name)
	return f.Asset
}

// Describe returns the accessibility label for name.
// Unknown names (and entries without text) yield UnknownDescription.
func (c *Catalog) Describe(name string) string {
	if f, ok := c.Lookup(name); ok && f.Description != "" {
		return f.Description
	}
	return UnknownDescription
}
