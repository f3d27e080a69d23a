package assets

import "strings"

// Path is a location relative to the asset tree root. The zero value is the
// root. Paths are immutable: Join always returns a fresh copy.
type Path struct {
	segs []string
}

func Root() Path {
	return Path{}
}

// ParsePath splits a slash separated relative path, dropping empty segments.
func ParsePath(s string) Path {
	var p Path
	for _, seg := range strings.Split(s, "/") {
		if seg == "" || seg == "." {
			continue
		}
		p.segs = append(p.segs, seg)
	}
	return p
}

func (p Path) Join(name string) Path {
	segs := make([]string, len(p.segs), len(p.segs)+1)
	copy(segs, p.segs)
	return Path{segs: append(segs, name)}
}

func (p Path) Segments() []string {
	segs := make([]string, len(p.segs))
	copy(segs, p.segs)
	return segs
}

func (p Path) Name() string {
	if len(p.segs) == 0 {
		return ""
	}
	return p.segs[len(p.segs)-1]
}

func (p Path) Depth() int { return len(p.segs) }

func (p Path) IsRoot() bool { return len(p.segs) == 0 }

func (p Path) String() string {
	return strings.Join(p.segs, "/")
}

// fsName is the io/fs form of the path, "." for the root.
func (p Path) fsName() string {
	if p.IsRoot() {
		return "."
	}
	return p.String()
}
