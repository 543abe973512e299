package fs

import (
	"path"
	"strings"
)

// MatchPattern reports whether the slash-separated relative path rel is
// selected by pattern. Segments are matched with path.Match; a "**" segment
// matches any number of segments, including none.
func MatchPattern(pattern, rel string) bool {
	return matchSegments(splitPath(pattern), splitPath(rel))
}

// Selected reports whether rel is selected by patterns. Patterns starting
// with "!" exclude paths selected by earlier patterns.
func Selected(patterns []string, rel string) bool {
	selected := false
	for _, p := range patterns {
		if negated, ok := strings.CutPrefix(p, "!"); ok {
			if selected && MatchPattern(negated, rel) {
				selected = false
			}
			continue
		}
		if !selected && MatchPattern(p, rel) {
			selected = true
		}
	}
	return selected
}

func splitPath(p string) []string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func matchSegments(pattern, name []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(name); i++ {
				if matchSegments(rest, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		if ok, err := path.Match(pattern[0], name[0]); err != nil || !ok {
			return false
		}
		pattern = pattern[1:]
		name = name[1:]
	}
	return len(name) == 0
}
