// Package grafana resolves URLs of Grafana panels rendered solo.
//
// Configuration is installed process-wide with Load, and cleared with Reset.
// Resolve itself does not touch the process-wide state.
package grafana

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownDashboard = errors.New("grafana: unknown dashboard")
	ErrUnknownPanel     = errors.New("grafana: unknown panel")
	ErrInvalidConfig    = errors.New("grafana: invalid config")
)

type Config struct {
	// root URL of Grafana, like https://grafana.example.com/
	BaseUrl string `yaml:"baseUrl"`

	// default = 1
	OrgId int `yaml:"orgId,omitempty"`

	// "light" or "dark". Omitted from URLs when empty.
	Theme string `yaml:"theme,omitempty"`

	DefaultRange Range `yaml:"defaultRange,omitempty"`

	// dashboard name -> dashboard
	Dashboards map[string]Dashboard `yaml:"dashboards"`
}

// Range is a time range in Grafana notation, like "now-7d" or unix millis.
type Range struct {
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`
}

type Dashboard struct {
	Uid  string `yaml:"uid"`
	Slug string `yaml:"slug"`

	// panel name -> panel id
	Panels map[string]int `yaml:"panels"`
}

// Validate checks c and fills defaults.
func (c Config) Validate() (Config, error) {
	base, err := url.Parse(c.BaseUrl)
	if err != nil {
		return Config{}, fmt.Errorf("%w: baseUrl: %w", ErrInvalidConfig, err)
	}
	if !base.IsAbs() || base.Host == "" {
		return Config{}, fmt.Errorf("%w: baseUrl should be absolute: %q", ErrInvalidConfig, c.BaseUrl)
	}
	if c.OrgId == 0 {
		c.OrgId = 1
	}
	if c.OrgId < 0 {
		return Config{}, fmt.Errorf("%w: orgId should be positive: %d", ErrInvalidConfig, c.OrgId)
	}
	for name, d := range c.Dashboards {
		if d.Uid == "" {
			return Config{}, fmt.Errorf("%w: dashboards.%s.uid is required", ErrInvalidConfig, name)
		}
		for p, id := range d.Panels {
			if id <= 0 {
				return Config{}, fmt.Errorf("%w: dashboards.%s.panels.%s should be positive: %d", ErrInvalidConfig, name, p, id)
			}
		}
	}
	return c, nil
}

// Parse decodes and validates YAML config.
func Parse(content []byte) (Config, error) {
	c := Config{}
	if err := yaml.Unmarshal(content, &c); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return c.Validate()
}

var (
	mux     sync.RWMutex
	current *Config
)

// Load reads config from path and installs it as the current one.
//
// When it fails, the current config is left as it was.
func Load(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	c, err := Parse(content)
	if err != nil {
		return Config{}, err
	}
	Install(c)
	return c, nil
}

// Install makes c the current config.
func Install(c Config) {
	mux.Lock()
	defer mux.Unlock()
	current = &c
}

// Current returns the current config. ok is false when no config is installed.
func Current() (c Config, ok bool) {
	mux.RLock()
	defer mux.RUnlock()
	if current == nil {
		return Config{}, false
	}
	return *current, true
}

// Reset clears the current config.
func Reset() {
	mux.Lock()
	defer mux.Unlock()
	current = nil
}

// Reload follows a change of the config file at path.
//
// When the file is removed or renamed away, the current config is reset.
// Otherwise, the file is loaded like Load.
func Reload(path string, op fsnotify.Op) error {
	if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
		Reset()
		return nil
	}
	_, err := Load(path)
	return err
}

// Params are parameters of a panel URL.
type Params struct {
	Dashboard string
	Panel     string

	// Grafana variables "object" and "mandant". Omitted when empty.
	Object  string
	Mandant string

	// override defaults of the config when not empty.
	From  string
	To    string
	Theme string

	// other Grafana variables. Each key k is sent as "var-k".
	Vars map[string]string
}

// Resolve builds the URL of a solo panel.
//
// Query parameters are sorted by name, so the result is stable for same inputs.
//
// # Returns
//
// - string: URL like <baseUrl>/d-solo/<uid>/<slug>?from=...&orgId=...&panelId=...
//
// - error: ErrUnknownDashboard or ErrUnknownPanel
func Resolve(params Params, conf Config) (string, error) {
	d, ok := conf.Dashboards[params.Dashboard]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDashboard, params.Dashboard)
	}
	panelId, ok := d.Panels[params.Panel]
	if !ok {
		return "", fmt.Errorf("%w: %q in dashboard %q", ErrUnknownPanel, params.Panel, params.Dashboard)
	}

	orgId := conf.OrgId
	if orgId == 0 {
		orgId = 1
	}

	q := url.Values{}
	q.Set("orgId", strconv.Itoa(orgId))
	q.Set("panelId", strconv.Itoa(panelId))
	setNonEmpty(q, "from", params.From, conf.DefaultRange.From)
	setNonEmpty(q, "to", params.To, conf.DefaultRange.To)
	setNonEmpty(q, "theme", params.Theme, conf.Theme)
	for k, v := range params.Vars {
		q.Set("var-"+k, v)
	}
	setNonEmpty(q, "var-object", params.Object)
	setNonEmpty(q, "var-mandant", params.Mandant)

	path := "/d-solo/" + url.PathEscape(d.Uid)
	if d.Slug != "" {
		path += "/" + url.PathEscape(d.Slug)
	}

	// url.Values.Encode sorts keys.
	return strings.TrimRight(conf.BaseUrl, "/") + path + "?" + q.Encode(), nil
}

// setNonEmpty sets the first non-empty value of candidates, if any.
func setNonEmpty(q url.Values, key string, candidates ...string) {
	for _, v := range candidates {
		if v != "" {
			q.Set(key, v)
			return
		}
	}
}
