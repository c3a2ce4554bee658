package custody

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kilnbuild/kiln/pkg/kfs"
	"github.com/kilnbuild/kiln/pkg/logging"
)

// File is the on-disk representation of a Store: parameters, graph, and
// meta store. Go's encoding/json
// already sorts map keys on marshal, which is what gives us "JSON with
// sorted keys within each section" without a third-party codec.
type File struct {
	Parameters map[string]string `json:"parameters"`
	Graph      Graph             `json:"graph"`
	Meta       MetaStore         `json:"meta"`
}

// wireEntry is the two-element [kind, meta] pair an Entry serializes to.
type wireEntry [2]any

// MarshalJSON implements json.Marshaler for MetaStore, producing
// {"<key>": ["<kind>", {...meta...}], ...}.
func (m MetaStore) MarshalJSON() ([]byte, error) {
	wire := make(map[string]wireEntry, len(m))
	for key, entry := range m {
		wire[key] = wireEntry{entry.Kind, entry.Meta}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler for MetaStore.
func (m *MetaStore) UnmarshalJSON(data []byte) error {
	var wire map[string][2]json.RawMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	result := make(MetaStore, len(wire))
	for key, pair := range wire {
		var kind string
		if err := json.Unmarshal(pair[0], &kind); err != nil {
			return fmt.Errorf("entry %q: invalid kind: %w", key, err)
		}
		var meta map[string]any
		if err := json.Unmarshal(pair[1], &meta); err != nil {
			return fmt.Errorf("entry %q: invalid meta: %w", key, err)
		}
		result[key] = Entry{Kind: kind, Key: key, Meta: meta}
	}
	*m = result
	return nil
}

// newFile returns an empty File.
func newFile() *File {
	return &File{
		Parameters: make(map[string]string),
		Graph:      NewGraph(),
		Meta:       NewMetaStore(),
	}
}

// loadFile reads and parses a cache file. A missing file is not an error —
// the caller is expected to treat a nil *File as "start empty". A corrupt
// file is downgraded to a warning and also yields a nil *File, triggering
// a full rebuild rather than aborting the run.
func loadFile(path string, logger *logging.Logger) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to read custody cache %q: %w", path, err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		logger.Warnf("custody cache %q is corrupt, starting fresh: %s", path, err.Error())
		return nil, nil
	}
	if f.Graph == nil {
		f.Graph = NewGraph()
	}
	if f.Meta == nil {
		f.Meta = NewMetaStore()
	}
	if f.Parameters == nil {
		f.Parameters = make(map[string]string)
	}
	return &f, nil
}

// saveFile writes f to path atomically.
func saveFile(path string, f *File, logger *logging.Logger) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal custody cache: %w", err)
	}
	if err := kfs.WriteFileAtomic(path, data, 0o644, logger); err != nil {
		return fmt.Errorf("unable to write custody cache %q: %w", path, err)
	}
	return nil
}
