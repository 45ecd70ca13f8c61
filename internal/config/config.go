// Package config loads the scripts to monitor. The primary source is a YAML
// settings file holding a script count and one "script-N" list per script;
// when it has no count, a TOML metadata file next to it supplies a static
// fallback list.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	envOverride      = "SCRIPTPANEL_CONFIG"
	settingsFileName = "settings.yaml"
	metadataFileName = "metadata.toml"
	countKey         = "count"
	scriptKeyPrefix  = "script-"
)

// MaxTimeoutMillis is the longest interval that fits in a time.Duration.
const MaxTimeoutMillis = math.MaxInt64 / int64(time.Millisecond)

// ErrNoScripts is returned when neither source defines any script.
var ErrNoScripts = errors.New("no scripts configured")

// ScriptSpec is one monitored command. Immutable once loaded.
type ScriptSpec struct {
	TimeoutMillis int      `yaml:"timeout" toml:"timeout" json:"timeout" validate:"gt=0,lte=9223372036854" jsonschema:"title=Timeout,description=Interval between runs in milliseconds,minimum=1,maximum=9223372036854"`
	Argv          []string `yaml:"cmd" toml:"cmd" json:"cmd" validate:"min=1" jsonschema:"title=Command,description=Executable looked up on PATH followed by its arguments,minItems=1"`
}

// Interval returns the timer period.
func (s ScriptSpec) Interval() time.Duration {
	return time.Duration(s.TimeoutMillis) * time.Millisecond
}

func (s ScriptSpec) String() string {
	return fmt.Sprintf("every %s: %s", s.Interval(), strings.Join(s.Argv, " "))
}

// Settings is the structured per-instance settings document. Keys other
// than count and script-N are ignored.
type Settings struct {
	Count   *int                 `yaml:"count"`
	Scripts map[string]yaml.Node `yaml:",inline"`
}

// Metadata is the static fallback bundled with the installation.
type Metadata struct {
	Scripts []ScriptSpec `toml:"scripts" json:"scripts" jsonschema:"title=Scripts"`
}

// Source names where the scripts were loaded from.
type Source string

const (
	FromSettings Source = "settings"
	FromMetadata Source = "metadata"
)

// LoadResult holds the loaded scripts and where they came from.
type LoadResult struct {
	Scripts []ScriptSpec
	Source  Source
	Path    string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		spec := sl.Current().Interface().(ScriptSpec)
		if len(spec.Argv) > 0 && spec.Argv[0] == "" {
			sl.ReportError(spec.Argv, "Argv", "cmd", "command", "")
		}
	}, ScriptSpec{})
	return v
}

// Validate checks a single spec: positive timeout and a named command.
func Validate(spec ScriptSpec) error {
	if err := validate.Struct(spec); err != nil {
		return fmt.Errorf("invalid script %q: %w", strings.Join(spec.Argv, " "), err)
	}
	return nil
}

// DefaultPath returns the settings file path: $SCRIPTPANEL_CONFIG, or
// settings.yaml under the user configuration directory.
func DefaultPath() string {
	if p := os.Getenv(envOverride); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return settingsFileName
	}
	return filepath.Join(dir, "scriptpanel", settingsFileName)
}

// MetadataPath returns the fallback metadata path for a settings path.
func MetadataPath(settingsPath string) string {
	return filepath.Join(filepath.Dir(settingsPath), metadataFileName)
}

// Load reads the settings at path. If the file is missing or has no count
// key, the metadata file next to it is used instead.
func Load(path string) (*LoadResult, error) {
	settings, err := LoadSettings(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if settings != nil && settings.Count != nil {
		scripts, err := settings.Specs()
		if err != nil {
			return nil, fmt.Errorf("parsing settings %s: %w", path, err)
		}
		if len(scripts) == 0 {
			return nil, fmt.Errorf("settings %s: %w", path, ErrNoScripts)
		}
		return &LoadResult{Scripts: scripts, Source: FromSettings, Path: path}, nil
	}

	metaPath := MetadataPath(path)
	meta, err := LoadMetadata(metaPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no settings at %s and no metadata at %s: %w", path, metaPath, ErrNoScripts)
		}
		return nil, err
	}
	for i, spec := range meta.Scripts {
		if err := Validate(spec); err != nil {
			return nil, fmt.Errorf("metadata %s: scripts[%d]: %w", metaPath, i, err)
		}
	}
	if len(meta.Scripts) == 0 {
		return nil, fmt.Errorf("metadata %s: %w", metaPath, ErrNoScripts)
	}
	return &LoadResult{Scripts: meta.Scripts, Source: FromMetadata, Path: metaPath}, nil
}

// LoadSettings parses the YAML settings file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	return &s, nil
}

// LoadMetadata parses the TOML metadata file.
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata %s: %w", path, err)
	}
	var m Metadata
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing metadata %s: %w", path, err)
	}
	return &m, nil
}

// Specs returns script-1 through script-<count> in order. Missing keys are
// skipped. Each value is the timeout in milliseconds followed by the argv.
func (s *Settings) Specs() ([]ScriptSpec, error) {
	if s.Count == nil {
		return nil, nil
	}
	var specs []ScriptSpec
	for i := 1; i <= *s.Count; i++ {
		key := scriptKeyPrefix + strconv.Itoa(i)
		node, ok := s.Scripts[key]
		if !ok {
			continue
		}
		var raw []string
		if err := node.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		spec, err := parseScript(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseScript(raw []string) (ScriptSpec, error) {
	if len(raw) < 2 {
		return ScriptSpec{}, fmt.Errorf("want timeout followed by a command, got %q", raw)
	}
	timeout, err := strconv.Atoi(strings.TrimSpace(raw[0]))
	if err != nil {
		return ScriptSpec{}, fmt.Errorf("timeout %q: %w", raw[0], err)
	}
	spec := ScriptSpec{TimeoutMillis: timeout, Argv: append([]string(nil), raw[1:]...)}
	if err := Validate(spec); err != nil {
		return ScriptSpec{}, err
	}
	return spec, nil
}

// TemplateSettings returns a settings document for first-time setup.
func TemplateSettings() string {
	return `# Number of script-N keys to read.
count: 2

# Timeout in milliseconds, then the command and its arguments.
# The first line of stdout is the label; stderr is the detail text.
script-1: ["5000", "date", "+%H:%M"]
script-2: ["60000", "sh", "-c", "uptime | cut -d, -f1; uptime >&2"]
`
}
