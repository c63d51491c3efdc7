package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hanpama/gqlmodules/internal/resolver"
)

// File is the TOML form of a manifest:
//
//	base_url = "modules"
//
//	[modules."Query.ping"]
//	schema = "extend type Query { ping: String }"
//	value = "pong"
//
//	[modules."Query.user"]
//	schema_file = "user.graphql"
type File struct {
	BaseURL string                `toml:"base_url"`
	Modules map[string]FileModule `toml:"modules"`
}

// FileModule is one module of a manifest file. Schema and SchemaFile are
// mutually exclusive. Value, when set, registers a resolver that always
// returns it.
type FileModule struct {
	Schema     string `toml:"schema"`
	SchemaFile string `toml:"schema_file"`
	Value      any    `toml:"value"`
}

// Load reads a TOML manifest file. Relative schema files resolve against
// base_url, which itself resolves against the directory of path.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	return Decode(string(data), filepath.Dir(path))
}

// Decode parses a TOML manifest. dir is the directory relative paths
// resolve against.
func Decode(data string, dir string) (Manifest, error) {
	var f File
	md, err := toml.Decode(data, &f)
	if err != nil {
		return Manifest{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Manifest{}, fmt.Errorf("unknown manifest keys: %s", strings.Join(keys, ", "))
	}

	base := f.BaseURL
	if base == "" {
		base = dir
	} else if !filepath.IsAbs(base) && !strings.Contains(base, "://") {
		base = filepath.Join(dir, base)
	}

	m := Manifest{Modules: make(map[string]Module, len(f.Modules)), BaseURL: base}
	for name, fm := range f.Modules {
		// Manifests built in code may use "" as a name; files may not.
		if name == "" {
			return Manifest{}, fmt.Errorf("module name must not be empty")
		}
		mod, err := fm.module(base)
		if err != nil {
			return Manifest{}, fmt.Errorf("module %q: %w", name, err)
		}
		m.Modules[name] = mod
	}
	return m, nil
}

func (fm FileModule) module(base string) (Module, error) {
	mod := Module{Schema: fm.Schema}
	if fm.SchemaFile != "" {
		if fm.Schema != "" {
			return Module{}, fmt.Errorf("schema and schema_file are mutually exclusive")
		}
		path := fm.SchemaFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(base, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return Module{}, err
		}
		mod.Schema = string(data)
	}
	if fm.Value != nil {
		mod.Resolver = resolver.Value(fm.Value)
	}
	return mod, nil
}
