// Package scan locates Windows Search index databases under a directory
// tree. Stores are found by their fixed file names: Windows.edb (ESE,
// Windows 10 and earlier) and Windows.db (SQLite, Windows 11).
package scan

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// StoreKind discriminates the two store formats.
type StoreKind int

const (
	KindESE StoreKind = iota
	KindSQLite
)

// String implements the Stringer interface for StoreKind.
func (k StoreKind) String() string {
	if k == KindSQLite {
		return "sqlite"
	}
	return "ese"
}

// Store is one discovered index database.
type Store struct {
	Path string
	Kind StoreKind
}

// Discover walks root recursively and returns every index store found, in
// walk order. Unreadable subdirectories abort the walk: a forensic run must
// not silently miss evidence.
func Discover(fs afero.Fs, root string) ([]Store, error) {
	info, err := fs.Stat(root)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %q", root)
	}
	if !info.IsDir() {
		s, ok := classify(root)
		if !ok {
			return nil, errors.Errorf("%q is not an index database", root)
		}
		return []Store{s}, nil
	}

	var stores []Store
	err = afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if s, ok := classify(path); ok {
			stores = append(stores, s)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scan %q", root)
	}
	return stores, nil
}

// classify matches a path against the known store file names.
func classify(path string) (Store, bool) {
	switch strings.ToLower(filepath.Base(path)) {
	case "windows.edb":
		return Store{Path: path, Kind: KindESE}, true
	case "windows.db":
		return Store{Path: path, Kind: KindSQLite}, true
	}
	return Store{}, false
}
