package pipeline

import (
	"path/filepath"
	"strconv"
	"strings"
)

// outputNames picks one output name per path so no two images of a batch
// write the same enhanced or debug file. A unique stem is used as is. Paths
// sharing a stem are named after their path below the batch's common
// directory, with separators and dots turned into underscores, and any name
// still taken gets its 1-based index appended.
func outputNames(paths []string) []string {
	stems := make([]string, len(paths))
	count := make(map[string]int, len(paths))
	for i, path := range paths {
		stems[i] = stem(path)
		count[stems[i]]++
	}

	root := commonDir(paths)
	names := make([]string, len(paths))
	for i, path := range paths {
		if count[stems[i]] == 1 {
			names[i] = stems[i]
			continue
		}
		names[i] = flatten(relativeTo(root, path))
	}

	used := make(map[string]bool, len(names))
	for i, name := range names {
		if used[name] {
			name += "_" + strconv.Itoa(i+1)
			names[i] = name
		}
		used[name] = true
	}
	return names
}

// commonDir is the deepest directory containing every path.
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	common := strings.Split(filepath.Dir(filepath.Clean(paths[0])), string(filepath.Separator))
	for _, path := range paths[1:] {
		parts := strings.Split(filepath.Dir(filepath.Clean(path)), string(filepath.Separator))
		n := 0
		for n < len(common) && n < len(parts) && common[n] == parts[n] {
			n++
		}
		common = common[:n]
	}
	if len(common) == 1 && common[0] == "" {
		return string(filepath.Separator)
	}
	return strings.Join(common, string(filepath.Separator))
}

func relativeTo(root, path string) string {
	if root != "" {
		if rel, err := filepath.Rel(root, filepath.Clean(path)); err == nil && rel != ".." &&
			!strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return rel
		}
	}
	return filepath.Base(path)
}

func flatten(rel string) string {
	name := strings.NewReplacer(string(filepath.Separator), "_", "/", "_", ".", "_").Replace(rel)
	name = strings.Trim(name, "_")
	if name == "" {
		return "image"
	}
	return name
}
