package kind

import (
	"os"
	"path/filepath"
)

// LoadAll loads every kind.yml found directly under root/<name>/kind.yml,
// the on-disk convention the rest of the package assumes.
func LoadAll(root string) (map[string]*Kind, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	kinds := map[string]*Kind{}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		dir := filepath.Join(root, e.Name())

		if _, err := os.Stat(filepath.Join(dir, "kind.yml")); err != nil {
			continue
		}

		k, err := Load(e.Name(), dir)
		if err != nil {
			return nil, err
		}

		kinds[e.Name()] = k
	}

	return kinds, nil
}
