package apps

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var templateVar = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Loader handles loading and parsing of apps.yaml
type Loader struct {
	filePath string
	lookup   func(string) (string, bool)
}

// NewLoader creates a new apps file loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
		lookup:   os.LookupEnv,
	}
}

// Load reads and parses the apps file
func (l *Loader) Load() (*AppsConfig, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read apps file: %w", err)
	}

	data = l.expandTemplateVariables(data)

	var config AppsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse apps yaml: %w", err)
	}

	return &config, nil
}

// expandTemplateVariables replaces {{NAME}} with the raw environment value
// of NAME. Unset variables expand to nothing.
// Example: version: {{SPOTIFY_VERSION}} -> version: 1.2.31
func (l *Loader) expandTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAllFunc(data, func(m []byte) []byte {
		name := templateVar.FindSubmatch(m)[1]
		v, _ := l.lookup(string(name))
		return []byte(strings.TrimSpace(v))
	})
}
