// Package custody implements the dependency-tracking subsystem: the CustodyEntry/CustodyGraph/MetaStore data model, the staleness
// algorithm, orphan detection, and persistence of the whole graph to a
// single cache file.
package custody

// Kind names for the two mandatory custody entry kinds.
const (
	KindPath         = "path"
	KindGlobManifest = "glob_manifest"
)

// Entry is a CustodyEntry: a (kind, key, meta) triple recording the last
// observed state of one artifact. meta's shape is opaque per kind; callers
// registering a custom kind (via Store.RegisterKind) are free to put
// whatever JSON-marshalable data they need into it.
type Entry struct {
	Kind string         `json:"-"`
	Key  string         `json:"-"`
	Meta map[string]any `json:"-"`
}

// NewPathEntry builds the mandatory "path" kind entry: key is a canonical,
// directory-prefixed path, and meta holds sha1/m_time/size.
func NewPathEntry(key, sha1 string, mtime float64, size int64) Entry {
	return Entry{
		Kind: KindPath,
		Key:  key,
		Meta: map[string]any{
			"sha1":   sha1,
			"m_time": mtime,
			"size":   size,
		},
	}
}

// NewGlobManifestEntry builds the mandatory "glob_manifest" kind entry: key
// is a pattern rooted in a named directory (e.g. "working_dir:*.py"), and
// meta holds the ordered list of files resolved at recording time.
func NewGlobManifestEntry(key string, files []string) Entry {
	filesCopy := make([]any, len(files))
	for i, f := range files {
		filesCopy[i] = f
	}
	return Entry{
		Kind: KindGlobManifest,
		Key:  key,
		Meta: map[string]any{
			"files": filesCopy,
		},
	}
}

// PathMeta extracts the sha1/m_time/size fields of a "path" kind entry. ok
// is false if e isn't a well-formed path entry.
func (e Entry) PathMeta() (sha1 string, mtime float64, size int64, ok bool) {
	if e.Kind != KindPath {
		return "", 0, 0, false
	}
	sha1, sok := e.Meta["sha1"].(string)
	m, mok := toFloat64(e.Meta["m_time"])
	s, sok2 := toInt64(e.Meta["size"])
	if !sok || !mok || !sok2 {
		return "", 0, 0, false
	}
	return sha1, m, s, true
}

// GlobManifestFiles extracts the ordered file list of a "glob_manifest"
// kind entry.
func (e Entry) GlobManifestFiles() ([]string, bool) {
	if e.Kind != KindGlobManifest {
		return nil, false
	}
	raw, ok := e.Meta["files"].([]any)
	if !ok {
		// Also accept []string directly, for entries built by hand rather
		// than through NewGlobManifestEntry or a JSON round trip (both of
		// which store []any).
		if asStrings, ok := e.Meta["files"].([]string); ok {
			return asStrings, true
		}
		return nil, false
	}
	files := make([]string, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		files[i] = s
	}
	return files, true
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
