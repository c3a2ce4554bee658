// Package settings resolves user-provided build configuration into the
// immutable Settings record the engine is constructed from.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/eknkc/basex"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/kilnbuild/kiln/pkg/kiln"
)

// base62Alphabet is digits, then lowercase, then uppercase, so the encoded
// scratch-directory token is filesystem-safe on every platform this engine
// targets.
const base62Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var base62Encoding *basex.Encoding

func init() {
	enc, err := basex.NewEncoding(base62Alphabet)
	if err != nil {
		panic("kiln/settings: unable to initialize base62 encoder: " + err.Error())
	}
	base62Encoding = enc
}

// Input is the record a user's configuration module populates. Any field
// left at its zero value is resolved from the environment, then a .env file,
// then a compiled-in default.
type Input struct {
	// InputDir is the read-only source tree. Required.
	InputDir string
	// OutputDir is where final artifacts are written. Defaults to
	// "{InputDir}/build".
	OutputDir string
	// WorkingDir is the scratch area for intermediate artifacts. Defaults to
	// a freshly created, uniquely named directory under os.TempDir().
	WorkingDir string
	// CustodyCache is the path to the on-disk custody cache file. Empty
	// disables caching entirely.
	CustodyCache string
	// PurgeDirs instructs the engine to delete OutputDir and WorkingDir
	// before the run.
	PurgeDirs bool
}

// Settings is the immutable, fully-resolved build configuration. The engine
// and custody store are constructed from a Settings value, never an Input.
type Settings struct {
	Dirs          kiln.ContextDirs
	PurgeDirs     bool
	EngineVersion string
}

// Resolve applies environment and .env overrides to in, validates the
// result, and returns an immutable Settings.
//
// Precedence, lowest to highest: compiled-in defaults, a .env file in the
// current working directory (if present), process environment variables
// (KILN_INPUT_DIR, KILN_OUTPUT_DIR, KILN_WORKING_DIR, KILN_CUSTODY_CACHE,
// KILN_PURGE), then whatever the caller set explicitly on Input.
func Resolve(in Input) (Settings, error) {
	// Loading a missing .env file is not an error; it simply means there are
	// no overrides to apply from it.
	_ = godotenv.Load()

	if in.InputDir == "" {
		in.InputDir = os.Getenv("KILN_INPUT_DIR")
	}
	if in.OutputDir == "" {
		in.OutputDir = os.Getenv("KILN_OUTPUT_DIR")
	}
	if in.WorkingDir == "" {
		in.WorkingDir = os.Getenv("KILN_WORKING_DIR")
	}
	if in.CustodyCache == "" {
		in.CustodyCache = os.Getenv("KILN_CUSTODY_CACHE")
	}
	if !in.PurgeDirs {
		if v := os.Getenv("KILN_PURGE"); v != "" {
			if parsed, err := strconv.ParseBool(v); err == nil {
				in.PurgeDirs = parsed
			}
		}
	}

	if in.InputDir == "" {
		return Settings{}, errors.New("input_dir is required")
	}

	inputAbs, err := filepath.Abs(in.InputDir)
	if err != nil {
		return Settings{}, fmt.Errorf("unable to resolve input_dir: %w", err)
	}

	outputDir := in.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(inputAbs, "build")
	}
	outputAbs, err := filepath.Abs(outputDir)
	if err != nil {
		return Settings{}, fmt.Errorf("unable to resolve output_dir: %w", err)
	}

	if outputAbs == inputAbs {
		return Settings{}, errors.New("output_dir must not equal input_dir")
	}

	workingDir := in.WorkingDir
	if workingDir == "" {
		token, err := scratchToken()
		if err != nil {
			return Settings{}, fmt.Errorf("unable to generate scratch directory name: %w", err)
		}
		workingDir = filepath.Join(os.TempDir(), "kiln-work-"+token)
	}
	workingAbs, err := filepath.Abs(workingDir)
	if err != nil {
		return Settings{}, fmt.Errorf("unable to resolve working_dir: %w", err)
	}

	if workingAbs == inputAbs || workingAbs == outputAbs {
		return Settings{}, errors.New("working_dir must not equal input_dir or output_dir")
	}

	var cacheAbs string
	if in.CustodyCache != "" {
		cacheAbs, err = filepath.Abs(in.CustodyCache)
		if err != nil {
			return Settings{}, fmt.Errorf("unable to resolve custody_cache: %w", err)
		}
	}

	return Settings{
		Dirs: kiln.ContextDirs{
			Input:        inputAbs,
			Output:       outputAbs,
			Working:      workingAbs,
			CustodyCache: cacheAbs,
		},
		PurgeDirs:     in.PurgeDirs,
		EngineVersion: kiln.Version,
	}, nil
}

// scratchToken generates a short, filesystem-safe, base62-encoded token for
// naming an auto-created working directory, so concurrent builds against
// the same input tree don't collide. The randomness comes from a v4 UUID
// rather than a bare byte buffer, re-encoded into base62 for a shorter,
// more typeable directory suffix than the UUID's own hyphenated form.
func scratchToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	raw, err := id.MarshalBinary()
	if err != nil {
		return "", err
	}
	return base62Encoding.Encode(raw), nil
}

// Parameters returns the set of settings captured in the custody cache's
// "parameters" section. Any change to these values invalidates the entire
// cache on load.
func (s Settings) Parameters() map[string]string {
	return map[string]string{
		"input_dir":      s.Dirs.Input,
		"output_dir":     s.Dirs.Output,
		"working_dir":    s.Dirs.Working,
		"custody_cache":  s.Dirs.CustodyCache,
		"engine_version": s.EngineVersion,
	}
}
