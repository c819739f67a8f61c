package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceBuiltin SourceKind = "builtin"
	SourceFile    SourceKind = "file"
)

// Source records where a config value came from.
type Source struct {
	Kind   SourceKind
	Name   string // builtin or default name
	File   string
	Line   int
	Column int
}

func (s Source) String() string {
	switch s.Kind {
	case SourceFile:
		return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
	case SourceBuiltin:
		return "builtin " + s.Name
	default:
		return string(s.Kind)
	}
}

func fileSource(file string, n *yaml.Node) Source {
	return Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // dotted key -> file that set it last
	Files   []string          // loaded files, includes first
}

// PathEnv overrides the config file location when set.
const PathEnv = "PERCH_CONFIG"

func DefaultConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(PathEnv)); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "perch", "config.yaml"), nil
}

// Load returns the effective config from the default location.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources is Load plus per-key sources for `perch config explain`.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and its includes. A missing file yields the defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	var merged layer
	if _, err := os.Stat(path); err == nil {
		ld := &loader{loaded: map[string]bool{}}
		if merged, err = ld.load(path, nil); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg, err := BuildEffectiveConfig(merged.raw)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		return nil, withSource(err, merged.sources)
	}

	sources := merged.sources
	if sources == nil {
		sources = map[string]Source{}
	}
	return &LoadResult{Config: cfg, Sources: sources, Files: merged.files}, nil
}

// layer is one file, or a file merged with everything it includes.
type layer struct {
	raw     RawConfig
	sources map[string]Source
	files   []string
}

// over applies top on top of l.
func (l layer) over(top layer) layer {
	out := layer{
		raw:     l.raw.merge(top.raw),
		sources: make(map[string]Source, len(l.sources)+len(top.sources)),
		files:   append(slices.Clip(l.files), top.files...),
	}
	for k, v := range l.sources {
		out.sources[k] = v
	}
	for k, v := range top.sources {
		out.sources[k] = v
	}
	return out
}

// loader walks include graphs. A file reached twice through different
// includes is merged once; a file that includes itself is an error.
type loader struct {
	loaded map[string]bool
}

func (ld *loader) load(path string, chain []string) (layer, error) {
	file := canonicalPath(path)
	if slices.Contains(chain, file) {
		return layer{}, fmt.Errorf("include cycle detected: %s -> %s", strings.Join(chain, " -> "), file)
	}
	if ld.loaded[file] {
		return layer{}, nil
	}
	ld.loaded[file] = true

	data, err := os.ReadFile(file)
	if err != nil {
		return layer{}, fmt.Errorf("%s: failed to read: %w", file, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return layer{}, fmt.Errorf("%s: failed to parse yaml: %w", file, err)
	}
	self := layer{files: []string{file}}
	if err := decodeStrict(data, &self.raw); err != nil {
		return layer{}, fmt.Errorf("%s: %w", file, err)
	}
	root := rootMapping(&doc)
	self.sources = keySources(root, file)

	chain = append(slices.Clip(chain), file)
	var base layer
	for _, inc := range includeNodes(root) {
		paths, err := includePaths(file, inc.Value)
		if err != nil {
			return layer{}, fmt.Errorf("%s: include %q: %w", fileSource(file, inc), inc.Value, err)
		}
		for _, p := range paths {
			child, err := ld.load(p, chain)
			if err != nil {
				return layer{}, err
			}
			base = base.over(child)
		}
	}
	// The including file wins over what it includes.
	return base.over(self), nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// canonicalPath resolves symlinks when it can and falls back to the absolute
// path otherwise.
func canonicalPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real
	}
	return path
}

// includePaths resolves an include entry relative to the including file. A
// directory expands to its *.yaml and *.yml files in name order.
func includePaths(from, include string) ([]string, error) {
	if include == "" {
		return nil, errors.New("path is empty")
	}
	target, err := expandHome(include)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(from), target)
	}

	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{target}, nil
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			if !e.IsDir() {
				files = append(files, filepath.Join(target, e.Name()))
			}
		}
	}
	slices.Sort(files)
	return files, nil
}

func rootMapping(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return nil
	}
	return doc
}

// keySources maps every dotted key path in a mapping to its value position.
// Sequences are recorded as a whole.
func keySources(m *yaml.Node, file string) map[string]Source {
	out := map[string]Source{}
	var walk func(n *yaml.Node, prefix string)
	walk = func(n *yaml.Node, prefix string) {
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i].Value, n.Content[i+1]
			if prefix != "" {
				key = prefix + "." + key
			}
			out[key] = fileSource(file, val)
			if val.Kind == yaml.MappingNode {
				walk(val, key)
			}
		}
	}
	if m != nil {
		walk(m, "")
	}
	return out
}

// includeNodes returns the scalar entries of the top-level include key.
func includeNodes(m *yaml.Node) []*yaml.Node {
	if m == nil {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value != "include" {
			continue
		}
		val := m.Content[i+1]
		switch val.Kind {
		case yaml.ScalarNode:
			return []*yaml.Node{val}
		case yaml.SequenceNode:
			var out []*yaml.Node
			for _, item := range val.Content {
				if item.Kind == yaml.ScalarNode {
					out = append(out, item)
				}
			}
			return out
		}
		return nil
	}
	return nil
}

// withSource annotates a ValidationError with the file position of its key.
func withSource(err error, sources map[string]Source) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path == "" {
		return err
	}
	if src, ok := sources[verr.Path]; ok {
		verr.Source = src
	}
	return verr
}
