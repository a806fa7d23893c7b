package apps

// AppsConfig represents the top-level structure of apps.yaml
type AppsConfig struct {
	Apps []AppProps `yaml:"apps"`
}

// AppProps describes one locally installed app
type AppProps struct {
	Scheme   string   `yaml:"scheme"`
	Name     string   `yaml:"name,omitempty"`
	Platform string   `yaml:"platform,omitempty"`
	Version  string   `yaml:"version,omitempty"`
	Command  []string `yaml:"command,omitempty"`
	Disabled bool     `yaml:"disabled,omitempty"`
}
