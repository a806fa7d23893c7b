package apps

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/applink/internal/domain"
)

// SourceFile tags apps that come from the apps file.
const SourceFile = "file"

// Mapper converts apps file entries to domain.App entities
type Mapper struct {
	defaultPlatform string
}

// NewMapper creates a mapper. defaultPlatform is used for entries that do
// not name one.
func NewMapper(defaultPlatform string) *Mapper {
	return &Mapper{defaultPlatform: defaultPlatform}
}

// MapApps converts an AppsConfig to []*domain.App. Entries without a usable
// scheme are skipped; a later entry for the same scheme wins.
func (m *Mapper) MapApps(config *AppsConfig) ([]*domain.App, error) {
	if config == nil {
		return nil, fmt.Errorf("no apps config")
	}

	now := time.Now()
	byScheme := make(map[string]int, len(config.Apps))
	var apps []*domain.App

	for _, props := range config.Apps {
		scheme := normalizeScheme(props.Scheme)
		if scheme == "" || scheme == "http" || scheme == "https" {
			continue
		}

		platform := strings.ToLower(strings.TrimSpace(props.Platform))
		if platform == "" {
			platform = m.defaultPlatform
		}

		name := strings.TrimSpace(props.Name)
		if name == "" {
			name = scheme
		}

		app := &domain.App{
			Scheme:    scheme,
			Platform:  platform,
			Name:      name,
			Version:   strings.TrimSpace(props.Version),
			Command:   append([]string(nil), props.Command...),
			Sources:   []string{SourceFile},
			UpdatedAt: now,
			Disabled:  props.Disabled,
		}

		if i, ok := byScheme[scheme]; ok {
			apps[i] = app
			continue
		}
		byScheme[scheme] = len(apps)
		apps = append(apps, app)
	}

	if len(apps) == 0 {
		return nil, fmt.Errorf("no valid apps found in apps file")
	}

	return apps, nil
}

// normalizeScheme accepts "spotify", "spotify:" or "spotify://".
func normalizeScheme(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "//")
	s = strings.TrimSuffix(s, ":")
	if strings.ContainsAny(s, ":/ ") {
		return ""
	}
	return s
}
