// rgbd-codec - carry depth maps and GPS poses through 8-bit video
//  Copyright (C) 2025, The Cacophony Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package lut persists precomputed lookup tables so they only need to be
// built once per parameter set.
package lut

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrStale is returned by Load when a cache file exists but was written
// for different parameters or by an incompatible version.
var ErrStale = errors.New("lookup table is stale")

// Key identifies a set of tables. Two keys with the same scheme, version
// and parameters always name the same file.
type Key struct {
	Scheme  string
	Version uint8
	Params  map[string]float64
}

// String returns the canonical form of the key that is hashed.
func (k Key) String() string {
	names := make([]string, 0, len(k.Params))
	for name := range k.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := []string{k.Scheme, strconv.Itoa(int(k.Version))}
	for _, name := range names {
		parts = append(parts, name+"="+strconv.FormatFloat(k.Params[name], 'g', -1, 64))
	}
	return strings.Join(parts, "|")
}

// Hash returns the hex encoded SHA-256 of the canonical key.
func (k Key) Hash() string {
	sum := sha256.Sum256([]byte(k.String()))
	return hex.EncodeToString(sum[:])
}

func (k Key) Filename() string {
	return fmt.Sprintf("%s-%s.lut", k.Scheme, k.Hash()[:16])
}

// Section is one named table. Exactly one of Bytes and Words is set.
type Section struct {
	Name  string
	Bytes []uint8
	Words []uint16
}

func (s Section) width() uint8 {
	if s.Words != nil {
		return 2
	}
	return 1
}

// Len returns the number of elements in the table.
func (s Section) Len() int {
	if s.Words != nil {
		return len(s.Words)
	}
	return len(s.Bytes)
}

// Find returns the section with the given name.
func Find(sections []Section, name string) (Section, bool) {
	for _, s := range sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Cache stores table files in Dir. An empty Dir disables persistence.
type Cache struct {
	Dir  string
	logf func(string)
}

func New(dir string) *Cache {
	return &Cache{
		Dir:  dir,
		logf: func(string) {},
	}
}

// SetLogFunc sets the function used to report unusable or unwritable
// cache files.
func (c *Cache) SetLogFunc(f func(string)) {
	c.logf = f
}

// Path returns where the tables for key are kept.
func (c *Cache) Path(key Key) string {
	return filepath.Join(c.Dir, key.Filename())
}

// Load reads the tables for key. A missing file gives an error satisfying
// errors.Is(err, os.ErrNotExist). A file written for other parameters gives
// ErrStale.
func (c *Cache) Load(key Key) ([]Section, error) {
	if c.Dir == "" {
		return nil, fmt.Errorf("lookup table cache disabled: %w", os.ErrNotExist)
	}
	f, err := os.Open(c.Path(key))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(bufio.NewReader(f), key)
}

// Store writes the tables for key. The file is written under a temporary
// name and renamed into place once complete.
func (c *Cache) Store(key Key, sections []Section) error {
	if c.Dir == "" {
		return nil
	}
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.Dir, key.Filename()+".*.temp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	err = Write(w, key, sections)
	if err == nil {
		err = w.Flush()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpName, c.Path(key))
	}
	if err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// LoadOrBuild returns the cached tables for key, building and storing them
// when there is no usable cache file. Failing to store the result is
// logged but not returned.
func (c *Cache) LoadOrBuild(key Key, build func() ([]Section, error)) ([]Section, error) {
	sections, err := c.Load(key)
	if err == nil {
		return sections, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		c.logf(fmt.Sprintf("rebuilding %s: %v", c.Path(key), err))
	}

	sections, err = build()
	if err != nil {
		return nil, err
	}
	if err := c.Store(key, sections); err != nil {
		c.logf(fmt.Sprintf("failed to store %s: %v", c.Path(key), err))
	}
	return sections, nil
}

// DeleteTempFiles removes temporary files left behind by interrupted
// stores.
func (c *Cache) DeleteTempFiles() error {
	if c.Dir == "" {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(c.Dir, "*.lut.*.temp"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		c.logf("deleting temp file " + m)
		if err := os.Remove(m); err != nil {
			return err
		}
	}
	return nil
}
