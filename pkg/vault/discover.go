package vault

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// MarkerDir identifies an Obsidian vault.
const MarkerDir = ".obsidian"

// SearchRoots lists the directories Discover looks in by default.
func SearchRoots() []string {
	var roots []string
	if wd, err := os.Getwd(); err == nil {
		roots = append(roots, wd, filepath.Dir(wd))
	}
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots,
			filepath.Join(home, "Documents"),
			filepath.Join(home, "Library", "Application Support", "obsidian"),
			filepath.Join(home, "Obsidian"),
		)
	}
	return roots
}

// Discover returns directories under roots, at most maxDepth levels deep,
// that contain a .obsidian directory. Results keep root order and are unique.
func Discover(roots []string, maxDepth int) []string {
	seen := make(map[string]bool)
	var found []string
	for _, root := range roots {
		root = filepath.Clean(root)
		base := strings.Count(root, string(filepath.Separator))
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if info, err := os.Stat(filepath.Join(path, MarkerDir)); err == nil && info.IsDir() && !seen[path] {
				seen[path] = true
				found = append(found, path)
			}
			if strings.Count(path, string(filepath.Separator))-base >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		})
	}
	return found
}
