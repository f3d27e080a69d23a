package assets

// Classified is the resolved kind of a listed entry. Listed reports whether
// Children already holds the entry's listing, which is the case whenever the
// kind had to be discovered by listing.
type Classified struct {
	Kind     Kind
	Children []Entry
	Listed   bool
}

// ListChildren lists p, carrying kind metadata when src provides it.
func ListChildren(src Source, p Path) ([]Entry, error) {
	if ts, ok := src.(TypedSource); ok {
		return ts.ListEntries(p)
	}

	ns, err := src.List(p)
	if err != nil {
		return nil, err
	}
	result := make([]Entry, len(ns))
	for i, n := range ns {
		result[i] = Entry{Name: n, Kind: KindUnknown, Size: -1}
	}
	return result, nil
}

// Classify decides whether e, found at p, is a directory or a leaf. Entries
// of unknown kind are listed: a non-empty listing makes a directory,
// anything else, including a failed listing, makes a leaf. The listing error
// is still returned so it can be reported.
func Classify(src Source, p Path, e Entry) (Classified, error) {
	switch e.Kind {
	case KindDir:
		return Classified{Kind: KindDir}, nil
	case KindFile:
		return Classified{Kind: KindFile}, nil
	}

	children, err := ListChildren(src, p)
	if err != nil {
		return Classified{Kind: KindFile}, err
	}
	if len(children) > 0 {
		return Classified{Kind: KindDir, Children: children, Listed: true}, nil
	}
	return Classified{Kind: KindFile}, nil
}
