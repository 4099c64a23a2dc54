package manifest

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/ryanuber/go-glob"
)

// Combine appends the files and head entries of sources that target does
// not already have. Files are compared by the message-ids of their
// segments, so distinct files sharing a subject are all kept.
func Combine(target *Manifest, sources ...*Manifest) {
	if target.Head == nil {
		target.Head = make(map[string]string)
	}
	seen := make(map[string]bool, len(target.Files))
	for _, f := range target.Files {
		seen[segmentKey(f)] = true
	}

	for _, src := range sources {
		for k, v := range src.Head {
			if _, ok := target.Head[k]; !ok {
				target.Head[k] = v
			}
		}
		for _, f := range src.Files {
			key := segmentKey(f)
			if len(f.Segments) > 0 && seen[key] {
				continue
			}
			seen[key] = true
			target.Files = append(target.Files, f)
			target.Size += f.Size
		}
	}
}

func segmentKey(f *File) string {
	ids := make([]string, len(f.Segments))
	for i, s := range f.Segments {
		ids[i] = s.ID
	}
	return strings.Join(ids, "\x00")
}

// IsGlob reports whether a selection pattern is treated as a glob rather
// than a regular expression.
func IsGlob(pattern string) bool {
	if !strings.ContainsAny(pattern, "*?") {
		return false
	}
	return !strings.ContainsAny(pattern, `\^$+()[]{}|`) && !strings.Contains(pattern, ".*")
}

// Filter keeps the files whose name matches pattern. The returned manifest
// shares its files with m.
func Filter(m *Manifest, pattern string) (*Manifest, error) {
	var match func(string) bool
	if IsGlob(pattern) {
		// go-glob only knows '*'
		p := strings.ReplaceAll(pattern, "?", "*")
		match = func(s string) bool { return glob.Glob(p, s) }
	} else {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid pattern %q", pattern)
		}
		match = re.MatchString
	}

	out := derive(m)
	for _, f := range m.Files {
		if f.Name != "" && match(f.Name) {
			out.Files = append(out.Files, f)
		}
	}
	out.recomputeSize()
	return out, nil
}

// ExtractNames keeps the files whose name is exactly one of names, in
// manifest order.
func ExtractNames(m *Manifest, names []string) *Manifest {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	out := derive(m)
	for _, f := range m.Files {
		if want[f.Name] {
			out.Files = append(out.Files, f)
		}
	}
	out.recomputeSize()
	return out
}

func derive(m *Manifest) *Manifest {
	out := New(m.Name)
	for k, v := range m.Head {
		out.Head[k] = v
	}
	return out
}
