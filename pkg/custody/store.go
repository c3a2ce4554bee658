package custody

import (
	"fmt"
	"os"

	"github.com/kilnbuild/kiln/pkg/kfs"
	"github.com/kilnbuild/kiln/pkg/kiln"
	"github.com/kilnbuild/kiln/pkg/logging"
)

// Source is an element of the source list passed to RefreshNeeded/AddStep/
// SkipStep: either a plain filesystem path or a pre-constructed Entry.
type Source struct {
	path    string
	entry   Entry
	isEntry bool
}

// SourcePath wraps a filesystem path as a Source.
func SourcePath(p string) Source {
	return Source{path: p}
}

// SourceEntry wraps a pre-constructed custody Entry as a Source, for
// transforms that declare dependencies outside the filesystem (a fetched
// URL, a packed file list, an environment variable).
func SourceEntry(e Entry) Source {
	return Source{entry: e, isEntry: true}
}

// Store is the Custody Store: it decides whether a
// transformation must rerun, records the results of runs, identifies
// orphans, and persists the graph.
type Store struct {
	dirs       kiln.ContextDirs
	parameters map[string]string
	cachePath  string
	logger     *logging.Logger

	checkers map[string]Checker

	// previous is what Load found on disk (nil if absent, corrupt, or its
	// parameters didn't match).
	previous *File

	// graph and meta accumulate during the current run; they become the
	// next File on Save.
	graph Graph
	meta  MetaStore
}

// NewStore constructs a Store for the given settings, with the mandatory
// "path" and "glob_manifest" checkers pre-registered.
func NewStore(dirs kiln.ContextDirs, parameters map[string]string, cachePath string, logger *logging.Logger) *Store {
	s := &Store{
		dirs:       dirs,
		parameters: parameters,
		cachePath:  cachePath,
		logger:     logger,
		checkers:   make(map[string]Checker),
		graph:      NewGraph(),
		meta:       NewMetaStore(),
	}
	s.RegisterKind(KindPath, pathChecker)
	s.RegisterKind(KindGlobManifest, globManifestChecker)
	return s
}

// RegisterKind installs a freshness predicate for a custody entry kind.
// Re-registering an existing kind replaces its checker.
func (s *Store) RegisterKind(kind string, checker Checker) {
	s.checkers[kind] = checker
}

// Load reads the cache file at the Store's configured path. A missing file
// is not an error. If the loaded parameters don't match the Store's
// current parameters, the cache is discarded (treated as absent) but its
// path is retained for Save.
func (s *Store) Load() error {
	if s.cachePath == "" {
		return nil
	}
	f, err := loadFile(s.cachePath, s.logger)
	if err != nil {
		return err
	}
	if f == nil {
		return nil
	}
	if !parametersEqual(f.Parameters, s.parameters) {
		s.logger.Printf("custody cache parameters changed, starting fresh")
		return nil
	}
	s.previous = f
	return nil
}

func parametersEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// Save atomically writes the accumulated graph and meta store to the
// Store's configured cache path. It is a no-op if no path was configured
// (caching disabled).
func (s *Store) Save() error {
	if s.cachePath == "" {
		return nil
	}
	f := &File{
		Parameters: s.parameters,
		Graph:      s.graph,
		Meta:       s.meta,
	}
	return saveFile(s.cachePath, f, s.logger)
}

// previousEntry looks up key in the previously loaded cache, if any.
func (s *Store) previousEntry(key string) (Entry, bool) {
	if s.previous == nil {
		return Entry{}, false
	}
	e, ok := s.previous.Meta[key]
	return e, ok
}

// buildPathEntry hashes the file at absolute path abs and builds its
// "path" kind Entry, keyed canonically.
func (s *Store) buildPathEntry(abs string) (string, Entry, error) {
	key, ok := kfs.CanonicalKey(s.dirs, abs)
	if !ok {
		return "", Entry{}, fmt.Errorf("%q is not under any known directory", abs)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", Entry{}, fmt.Errorf("unable to stat %q: %w", abs, err)
	}
	digest, err := kfs.HashFile(abs)
	if err != nil {
		return "", Entry{}, err
	}
	mtime := float64(info.ModTime().UnixNano()) / 1e9
	return key, NewPathEntry(key, digest, mtime, info.Size()), nil
}

// sourceStaleness reports whether one Source is stale, and why. An entry
// source is judged by its kind's registered checker, a path source by the
// "path" checker; either way the checker is given the entry recorded for
// that key by the previous run.
func (s *Store) sourceStaleness(src Source) (stale bool, reason string, err error) {
	if src.isEntry {
		checker, ok := s.checkers[src.entry.Kind]
		if !ok {
			return true, fmt.Sprintf("no checker registered for kind %q", src.entry.Kind), nil
		}
		prev, ok := s.previousEntry(src.entry.Key)
		if !ok {
			return true, fmt.Sprintf("missing upstream record %s", src.entry.Key), nil
		}
		fresh, err := checker(s.dirs, prev)
		if err != nil {
			return true, "", err
		}
		if !fresh {
			return true, fmt.Sprintf("upstream changed %s", src.entry.Key), nil
		}
		return false, "", nil
	}

	key, ok := kfs.CanonicalKey(s.dirs, src.path)
	if !ok {
		return true, fmt.Sprintf("%s is not under any known directory", src.path), nil
	}
	prev, ok := s.previousEntry(key)
	if !ok {
		return true, fmt.Sprintf("missing upstream record %s", key), nil
	}
	fresh, err := pathChecker(s.dirs, prev)
	if err != nil {
		return true, "", err
	}
	if !fresh {
		return true, fmt.Sprintf("upstream changed %s", key), nil
	}
	return false, "", nil
}

// sourceKey returns the dedup/lookup key for a Source: its entry key for an
// entry source, or its canonical path key for a path source.
func (s *Store) sourceKey(src Source) string {
	if src.isEntry {
		return src.entry.Key
	}
	if key, ok := kfs.CanonicalKey(s.dirs, src.path); ok {
		return key
	}
	return src.path
}

// previousSourcesFor reconstructs the Source values the previous run
// recorded as contributing to any of outputs, read back from the previous
// graph and meta store. A "path" kind entry becomes a path Source (resolved
// back to an absolute path); any other kind becomes an entry Source
// carrying its last-recorded Entry verbatim, so a custom checker can judge
// its freshness the same way it would have on the run that declared it.
func (s *Store) previousSourcesFor(outputs []string) []Source {
	if s.previous == nil {
		return nil
	}
	var result []Source
	seen := make(map[string]bool)
	for _, o := range outputs {
		outKey, ok := kfs.CanonicalKey(s.dirs, o)
		if !ok {
			continue
		}
		for _, srcKey := range s.previous.Graph.Sources(outKey) {
			if seen[srcKey] {
				continue
			}
			seen[srcKey] = true
			entry, ok := s.previous.Meta[srcKey]
			if !ok {
				continue
			}
			if entry.Kind == KindPath {
				if abs, ok := kfs.ResolveKey(s.dirs, srcKey); ok {
					result = append(result, SourcePath(abs))
					continue
				}
			}
			result = append(result, SourceEntry(entry))
		}
	}
	return result
}

// ExpandSources unions defaults with whatever sources the previous run
// recorded for outputs, deduplicated by source key (an explicit default
// always wins over a reconstructed one with the same key).
//
// A transform only redeclares its extra sources (e.g. a template dependency
// found via transform.Explicit) on a pass where it actually runs; on a pass
// where RefreshNeeded reports fresh and the rule is skipped, the transform
// is never invoked at all. Without this, a rule skipped on pass two would
// silently forget any extra source its pass-one run declared — neither
// checking its staleness on pass three nor keeping its graph edge alive —
// so an edit to that dependency alone would never trigger a rerun. Folding
// the previous run's sources back in keeps every declared dependency live
// across however many consecutive skips follow the run that discovered it.
func (s *Store) ExpandSources(defaults []Source, outputs []string) []Source {
	result := make([]Source, len(defaults))
	copy(result, defaults)
	seen := make(map[string]bool, len(defaults))
	for _, d := range defaults {
		seen[s.sourceKey(d)] = true
	}
	for _, prev := range s.previousSourcesFor(outputs) {
		key := s.sourceKey(prev)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, prev)
	}
	return result
}

// RefreshNeeded implements the staleness algorithm: given a prospective
// run's sources and outputs, it returns whether the transform must run
// and a human-readable reason.
func (s *Store) RefreshNeeded(sources []Source, outputs []string) (bool, string) {
	for _, o := range outputs {
		if _, err := os.Stat(o); err != nil {
			return true, fmt.Sprintf("missing output %s", o)
		}
	}

	for _, src := range sources {
		stale, reason, err := s.sourceStaleness(src)
		if err != nil {
			return true, fmt.Sprintf("error checking source: %s", err.Error())
		}
		if stale {
			return true, reason
		}
	}

	for _, o := range outputs {
		key, ok := kfs.CanonicalKey(s.dirs, o)
		if !ok {
			continue
		}
		prev, ok := s.previousEntry(key)
		if !ok {
			// A previously-unknown output file existing on disk isn't
			// "externally modified" in any meaningful sense — it's simply
			// new to this graph, so it doesn't force a rerun on its own.
			continue
		}
		fresh, err := pathChecker(s.dirs, prev)
		if err != nil {
			return true, fmt.Sprintf("error checking output: %s", err.Error())
		}
		if !fresh {
			return true, fmt.Sprintf("output was modified externally %s", key)
		}
	}

	return false, "cached"
}

// recordSourceEntry stores src's Entry into the current meta store, hashing
// path sources and using entry sources verbatim, and returns the key it was
// stored under.
func (s *Store) recordSourceEntry(src Source) (string, error) {
	if src.isEntry {
		s.meta[src.entry.Key] = src.entry
		return src.entry.Key, nil
	}
	key, entry, err := s.buildPathEntry(src.path)
	if err != nil {
		return "", err
	}
	s.meta[key] = entry
	return key, nil
}

// recordOutputKeys canonicalizes every output path, used by both AddStep
// and SkipStep to build the sibling-output list recorded on every edge.
func (s *Store) recordOutputKeys(outputs []string) ([]string, error) {
	keys := make([]string, len(outputs))
	for i, o := range outputs {
		key, ok := kfs.CanonicalKey(s.dirs, o)
		if !ok {
			return nil, fmt.Errorf("%q is not under any known directory", o)
		}
		keys[i] = key
	}
	return keys, nil
}

// AddStep records a successful transform run: it updates entries for every
// source (hashing file sources) and every output, and records graph edges
// for every output pointing at every source with the full output list.
func (s *Store) AddStep(sources []Source, outputs []string, message string) error {
	outputKeys, err := s.recordOutputKeys(outputs)
	if err != nil {
		return err
	}

	for i, o := range outputs {
		_, entry, err := s.buildPathEntry(o)
		if err != nil {
			return fmt.Errorf("recording output %s: %w", o, err)
		}
		s.meta[outputKeys[i]] = entry
	}

	sourceKeys := make([]string, 0, len(sources))
	for _, src := range sources {
		key, err := s.recordSourceEntry(src)
		if err != nil {
			return fmt.Errorf("recording source: %w", err)
		}
		sourceKeys = append(sourceKeys, key)
	}

	for _, outKey := range outputKeys {
		for _, srcKey := range sourceKeys {
			s.graph.AddEdge(outKey, srcKey, outputKeys)
		}
	}

	if message != "" {
		s.logger.Debugf("add_step: %s", message)
	}
	return nil
}

// SkipStep records that a run was skipped: it refreshes the recorded
// freshness of every source and output without rehashing, and preserves
// the graph edges between them.
//
// This takes a source list, generalizing the simpler single-source form a
// skip conceptually needs, so that a multi-source rule keeps every one of
// its edges intact on a pass where it's skipped, exactly as AddStep does
// when it runs.
func (s *Store) SkipStep(sources []Source, outputs []string) error {
	outputKeys, err := s.recordOutputKeys(outputs)
	if err != nil {
		return err
	}

	for i, o := range outputs {
		key := outputKeys[i]
		if prev, ok := s.previousEntry(key); ok {
			s.meta[key] = prev
		} else {
			_, entry, err := s.buildPathEntry(o)
			if err != nil {
				return fmt.Errorf("refreshing output %s: %w", o, err)
			}
			s.meta[key] = entry
		}
	}

	sourceKeys := make([]string, 0, len(sources))
	for _, src := range sources {
		var key string
		if src.isEntry {
			key = src.entry.Key
			if prev, ok := s.previousEntry(key); ok {
				s.meta[key] = prev
			} else {
				s.meta[key] = src.entry
			}
		} else {
			k, ok := kfs.CanonicalKey(s.dirs, src.path)
			if !ok {
				return fmt.Errorf("%q is not under any known directory", src.path)
			}
			key = k
			if prev, ok := s.previousEntry(key); ok {
				s.meta[key] = prev
			} else {
				_, entry, err := s.buildPathEntry(src.path)
				if err != nil {
					return fmt.Errorf("refreshing source %s: %w", src.path, err)
				}
				s.meta[key] = entry
			}
		}
		sourceKeys = append(sourceKeys, key)
	}

	for _, outKey := range outputKeys {
		for _, srcKey := range sourceKeys {
			s.graph.AddEdge(outKey, srcKey, outputKeys)
		}
	}

	return nil
}

// ReverseLookup finds the artifact key that currently owns a given SHA-1
// digest, if any, scanning the current run's meta store. Transforms use
// this to detect renamed-but-identical content and avoid redundant
// re-staging on renames. When several keys share the digest, which of them
// is returned is not defined.
func (s *Store) ReverseLookup(digest string) (string, bool) {
	for key, entry := range s.meta {
		if sha1, _, _, ok := entry.PathMeta(); ok && sha1 == digest {
			return key, true
		}
	}
	return "", false
}

// Graph returns the graph accumulated so far this run (used by the engine
// for orphan detection after the main loop completes).
func (s *Store) Graph() Graph {
	return s.graph
}

// PreviousGraph returns the graph loaded from the cache at construction
// time, or an empty Graph if there was none.
func (s *Store) PreviousGraph() Graph {
	if s.previous == nil {
		return NewGraph()
	}
	return s.previous.Graph
}

// Meta returns the meta store accumulated so far this run.
func (s *Store) Meta() MetaStore {
	return s.meta
}

// Dirs returns the ContextDirs this store was constructed with.
func (s *Store) Dirs() kiln.ContextDirs {
	return s.dirs
}
