// Package resources implements per-job option maps (CPUs, memory, time, …)
// with a shared default section and CLI-option rendering.
package resources

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kris-hansen/flowctl/utils/shquote"
	"github.com/shirou/gopsutil/v3/cpu"
	"gopkg.in/yaml.v3"
)

const defaultKey = "__default__"
const threadsKey = "threads"

// Resources is a job's effective option map: default values merged with any
// job-specific overrides, specific winning.
type Resources map[string]any

// Threads returns the thread/CPU count, which every Resources value is
// guaranteed to carry.
func (r Resources) Threads() int {
	v, ok := r[threadsKey]
	if !ok {
		return 1
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 1
	}
}

// TranslateFunc renders value into a full CLI token, bypassing the normal
// short/long option formatting entirely.
type TranslateFunc func(value any) string

// CLIOptions configures Resources.ToCLI rendering.
type CLIOptions struct {
	ShortOptPrefix string
	ShortOptSep    string
	LongOptPrefix  string
	LongOptSep     string
	// Translate maps a resource key to either a rename (string) or a
	// TranslateFunc producing the whole token.
	Translate map[string]any
}

// DefaultCLIOptions mirrors the original engine's rendering defaults.
func DefaultCLIOptions() CLIOptions {
	return CLIOptions{
		ShortOptPrefix: "-",
		ShortOptSep:    "",
		LongOptPrefix:  "--",
		LongOptSep:     "=",
	}
}

// ToCLI renders every (key, value) pair to a shell-escaped CLI token, in
// deterministic (sorted-by-key) order. A single-character key (after
// translation) renders as "-kv"; anything longer renders as "--key=value".
func (r Resources) ToCLI(opts CLIOptions) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tokens := make([]string, 0, len(keys))
	for _, key := range keys {
		tokens = append(tokens, shquote.Quote(renderToken(key, r[key], opts)))
	}
	return tokens
}

func renderToken(key string, value any, opts CLIOptions) string {
	renamed := key
	if tr, ok := opts.Translate[key]; ok {
		switch t := tr.(type) {
		case TranslateFunc:
			return t(value)
		case func(any) string:
			return t(value)
		case string:
			renamed = t
		}
	}

	valueStr := fmt.Sprint(value)
	if len(renamed) == 1 {
		return opts.ShortOptPrefix + renamed + opts.ShortOptSep + valueStr
	}
	return opts.LongOptPrefix + renamed + opts.LongOptSep + valueStr
}

// RootResources is the parsed contents of a resources file: a per-job
// mapping plus a required "__default__" section.
type RootResources struct {
	defaults Resources
	data     map[string]Resources
}

var suffixCodecs = map[string]func([]byte, any) error{
	".yaml": yaml.Unmarshal,
	".yml":  yaml.Unmarshal,
	".json": json.Unmarshal,
}

// Read loads a resources file, dispatching on its extension (.yaml, .yml,
// or .json).
func Read(path string) (*RootResources, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := suffixCodecs[ext]
	if !ok {
		exts := make([]string, 0, len(suffixCodecs))
		for e := range suffixCodecs {
			exts = append(exts, e)
		}
		sort.Strings(exts)
		return nil, fmt.Errorf("resources: file extension must be one of %s but got %q", strings.Join(exts, ", "), ext)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resources: reading %s: %w", path, err)
	}

	var data map[string]any
	if err := decode(raw, &data); err != nil {
		return nil, fmt.Errorf("resources: parsing %s: %w", path, err)
	}

	return New(data)
}

// New builds a RootResources from an already-decoded mapping, defaulting
// threads to 1 when the default section lacks it. Auto-detecting the
// logical CPU count happens only in Empty, used when no resources file is
// passed at all (see DetectThreads).
func New(data map[string]any) (*RootResources, error) {
	if data == nil {
		data = map[string]any{}
	}

	rawDefault, ok := data[defaultKey]
	var def map[string]any
	if ok {
		def, ok = rawDefault.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("resources: %q must be an object/dict", defaultKey)
		}
	} else {
		def = map[string]any{}
	}
	if _, ok := def[threadsKey]; !ok {
		def[threadsKey] = 1
	}

	rr := &RootResources{
		defaults: Resources(def),
		data:     make(map[string]Resources),
	}

	for name, raw := range data {
		if name == defaultKey {
			continue
		}
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("resources: entry %q must be an object/dict", name)
		}
		rr.data[name] = Resources(m)
	}

	return rr, nil
}

// Empty returns a RootResources with only the default section
// (threads=DetectThreads()), used when no resources file was supplied.
func Empty() *RootResources {
	rr, _ := New(map[string]any{
		defaultKey: map[string]any{threadsKey: DetectThreads()},
	})
	return rr
}

// Lookup returns the effective Resources for jobName: the default section
// overridden by jobName's own entry, if any.
func (rr *RootResources) Lookup(jobName string) Resources {
	merged := make(Resources, len(rr.defaults))
	for k, v := range rr.defaults {
		merged[k] = v
	}
	for k, v := range rr.data[jobName] {
		merged[k] = v
	}
	return merged
}

// DetectThreads returns the local logical CPU count, falling back to 1 if
// detection fails.
func DetectThreads() int {
	counts, err := cpu.Counts(true)
	if err != nil || counts <= 0 {
		return 1
	}
	return counts
}
