// Package settings implements the §6 Settings port: a (section, key) ->
// string lookup with a deterministic fallback chain of files and an
// environment-variable override. Grounded on
// original_source/rechu/settings.py's Settings class, re-architected per
// Design Note "Process-global settings singleton" into an explicit
// configuration value with a single builder applying the fallback chain,
// plus a package-level cache that test code can clear.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	apperrors "github.com/rechu/catalog/pkg/errors"
)

// envPrefix is the <APP> token in §6's `<APP>_<SECTION>_<KEY>` override
// form — RECHU, matching original_source/rechu/settings.py's
// `RECHU_<SECTION>_<KEY>` convention exactly (not a renamed project
// token), since §6 describes this as an externally observed grammar.
const envPrefix = "RECHU"

// overrideFileEnv lets a single environment variable redirect the head
// of the fallback chain to an arbitrary path, mirroring
// rechu/settings.py's RECHU_SETTINGS_FILE.
const overrideFileEnv = envPrefix + "_SETTINGS_FILE"

// FileSpec is one link of the fallback chain: a candidate file, whether
// environment overrides apply while resolving values through it, and an
// optional table prefix to descend into before reading sections (the
// teacher's viper config reads a flat file; this generalizes to the
// source's pyproject.toml-under-[tool.rechu] case).
type FileSpec struct {
	Path        string
	Environment bool
	Prefix      []string
}

// DefaultChain mirrors rechu/settings.py's Settings.FILES exactly: a
// project-local file (with environment overrides and the
// RECHU_SETTINGS_FILE redirect), a shared `pyproject.toml`-equivalent
// nested under a [tool.rechu] table, and a packaged default.
var DefaultChain = []FileSpec{
	{Path: "settings.toml", Environment: true},
	{Path: "pyproject.toml", Environment: false, Prefix: []string{"tool", "rechu"}},
	{Path: filepath.Join("rechu", "settings.toml"), Environment: false},
}

// Settings resolves (section, key) pairs through one link of a fallback
// chain, recursing into the next link on a miss. It is immutable once
// built; New/Instance construct fresh values, Clear only affects the
// process-global cache Instance reads from.
type Settings struct {
	sections    map[string]map[string]string
	environment bool
	next        *Settings
}

var (
	cacheMu sync.Mutex
	cached  *Settings
)

// Instance returns the process-global Settings singleton, building it
// from DefaultChain on first use. Grounded on Settings.get_settings's
// lazily-initialized class-level cache.
func Instance() *Settings {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cached == nil {
		cached = New(DefaultChain...)
	}
	return cached
}

// Clear drops the cached singleton so the next Instance call rebuilds
// it from the current environment and files — required by §5's "a
// settings cache is process-global and must support an explicit clear
// to allow tests to swap environments."
func Clear() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cached = nil
}

// New builds a Settings value from an explicit chain, bypassing the
// process-global cache entirely. Tests that need a scoped override
// (rather than mutating the shared singleton) should use New directly.
func New(chain ...FileSpec) *Settings {
	return build(chain)
}

func build(chain []FileSpec) *Settings {
	if len(chain) == 0 {
		return nil
	}
	head := chain[0]
	return &Settings{
		sections:    readSections(head),
		environment: head.Environment,
		next:        build(chain[1:]),
	}
}

// Get retrieves (section, key): an environment-variable override takes
// priority when this link of the chain honors overrides, then the
// file's own section/key, then recursion to the next link. A "no
// section / no key" miss at the end of the chain is a Validation error,
// matching the source's final KeyError.
func (s *Settings) Get(section, key string) (string, error) {
	if s == nil {
		return "", apperrors.ValidationF("%s.%s is not a recognized setting", section, key)
	}
	if s.environment {
		if value, ok := os.LookupEnv(envVarName(section, key)); ok {
			return value, nil
		}
	}
	if group, ok := s.sections[section]; ok {
		if value, ok := group[key]; ok {
			return value, nil
		}
	}
	if s.next != nil {
		return s.next.Get(section, key)
	}
	return "", apperrors.ValidationF("%s is not a section or does not have %s", section, key)
}

// envVarName builds the `<APP>_<SECTION>_<KEY>` override name: hyphens
// in key become underscores, the whole name uppercased.
func envVarName(section, key string) string {
	normalizedKey := strings.ReplaceAll(key, "-", "_")
	return strings.ToUpper(envPrefix + "_" + section + "_" + normalizedKey)
}

// DataConfig bundles the five `data.*` keys the core requires (§6's
// recognized-keys table).
type DataConfig struct {
	Path     string
	Format   string
	Pattern  string
	Products string
	Shops    string
}

// Data resolves every `data.*` key needed by the inventory/reader
// layer in one call.
func (s *Settings) Data() (DataConfig, error) {
	var cfg DataConfig
	var err error
	if cfg.Path, err = s.Get("data", "path"); err != nil {
		return DataConfig{}, err
	}
	if cfg.Format, err = s.Get("data", "format"); err != nil {
		return DataConfig{}, err
	}
	if cfg.Pattern, err = s.Get("data", "pattern"); err != nil {
		return DataConfig{}, err
	}
	if cfg.Products, err = s.Get("data", "products"); err != nil {
		return DataConfig{}, err
	}
	if cfg.Shops, err = s.Get("data", "shops"); err != nil {
		return DataConfig{}, err
	}
	return cfg, nil
}

// DatabaseURI resolves the `database.uri` key the store connects with.
func (s *Settings) DatabaseURI() (string, error) {
	return s.Get("database", "uri")
}

// readSections loads one fallback file through viper, returning an empty
// section map when the file doesn't exist (§7's "Nonexistent fallback"
// family: absent file is an empty document, not a failure) and applying
// spec.Prefix to descend into a nested table before exposing sections.
func readSections(spec FileSpec) map[string]map[string]string {
	path := resolvePath(spec)
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(configType(path))
	if err := v.ReadInConfig(); err != nil {
		return map[string]map[string]string{}
	}

	raw := v.AllSettings()
	for _, segment := range spec.Prefix {
		nested, ok := raw[segment].(map[string]interface{})
		if !ok {
			return map[string]map[string]string{}
		}
		raw = nested
	}

	sections := make(map[string]map[string]string, len(raw))
	for section, value := range raw {
		table, ok := value.(map[string]interface{})
		if !ok {
			continue
		}
		inner := make(map[string]string, len(table))
		for key, v := range table {
			inner[key] = fmt.Sprintf("%v", v)
		}
		sections[section] = inner
	}
	return sections
}

// resolvePath applies the RECHU_SETTINGS_FILE redirect to the head of
// the chain when this link honors environment overrides.
func resolvePath(spec FileSpec) string {
	if spec.Environment {
		if override, ok := os.LookupEnv(overrideFileEnv); ok {
			return override
		}
	}
	return spec.Path
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		return "toml"
	}
}
