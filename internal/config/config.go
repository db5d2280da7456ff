package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Client   ClientConfig   `mapstructure:"client"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Database DatabaseConfig `mapstructure:"database"`
	Map      MapConfig      `mapstructure:"map"`
	Export   ExportConfig   `mapstructure:"export"`
	Share    ShareConfig    `mapstructure:"share"`
	Lang     LangConfig     `mapstructure:"lang"`
	UI       UIConfig       `mapstructure:"ui"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
}

// ClientConfig is how the terminal client reaches the relay. A zero
// HTTPTimeout leaves the request bounded only by the transport.
type ClientConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
	Geocode     string        `mapstructure:"geocode_overrides"`
	Browser     string        `mapstructure:"browser"`
}

type RelayConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"`
	Script          []string      `mapstructure:"script"`
	DocAPIURL       string        `mapstructure:"doc_api_url"`
	MaxRecords      int           `mapstructure:"max_records"`
	RequestRate     float64       `mapstructure:"request_rate"`
	RequestBurst    int           `mapstructure:"request_burst"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	TrustedProxies  []string      `mapstructure:"trusted_proxies"`
	UpstreamTimeout time.Duration `mapstructure:"upstream_timeout"`
}

type DatabaseConfig struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type MapConfig struct {
	MinRadius     float64 `mapstructure:"min_radius"`
	MaxRadius     float64 `mapstructure:"max_radius"`
	ClusterRadius int     `mapstructure:"cluster_radius"`
	FlyZoom       int     `mapstructure:"fly_zoom"`
	CenterLat     float64 `mapstructure:"center_lat"`
	CenterLon     float64 `mapstructure:"center_lon"`
	Zoom          int     `mapstructure:"zoom"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

type ShareConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type LangConfig struct {
	DefaultLanguage     string        `mapstructure:"default_language"`
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
	ScanDelay           time.Duration `mapstructure:"scan_delay"`
	DetectURL           string        `mapstructure:"detect_url"`
}

type UIConfig struct {
	Dark    UIColors      `mapstructure:"dark"`
	Light   UIColors      `mapstructure:"light"`
	Article ArticleConfig `mapstructure:"article"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
	Land       string `mapstructure:"land"`
	TierA      string `mapstructure:"tier_a"`
	TierB      string `mapstructure:"tier_b"`
	TierC      string `mapstructure:"tier_c"`
}

type ArticleConfig struct {
	MaxDescriptionLength int `mapstructure:"max_description_length"`
	WordWrapMaxWidth     int `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth     int `mapstructure:"word_wrap_min_width"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit        string `mapstructure:"quit"`
	Search      string `mapstructure:"search"`
	Find        string `mapstructure:"find"`
	Refresh     string `mapstructure:"refresh"`
	Timespan    string `mapstructure:"timespan"`
	Sort        string `mapstructure:"sort"`
	Clusters    string `mapstructure:"clusters"`
	Heatmap     string `mapstructure:"heatmap"`
	Share       string `mapstructure:"share"`
	Export      string `mapstructure:"export"`
	Theme       string `mapstructure:"theme"`
	ToggleFeed  string `mapstructure:"toggle_feed"`
	Languages   string `mapstructure:"languages"`
	ResetView   string `mapstructure:"reset_view"`
	OpenBrowser string `mapstructure:"open_browser"`
	Back        string `mapstructure:"back"`
	Help        string `mapstructure:"help"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	stateDir := filepath.Join(homeDir, ".newsmap")

	return &Config{
		Client: ClientConfig{
			Endpoint:  "http://localhost:8080/api/news",
			UserAgent: "newsmap/1.0 (https://github.com/pders01/newsmap)",
		},
		Relay: RelayConfig{
			Addr:            ":8080",
			Mode:            "docapi",
			Script:          []string{"python", "gdelt.py"},
			DocAPIURL:       "https://api.gdeltproject.org/api/v2/doc/doc",
			MaxRecords:      250,
			RequestRate:     2,
			RequestBurst:    5,
			CORSOrigins:     []string{"*"},
			TrustedProxies:  []string{},
			UpstreamTimeout: 60 * time.Second,
		},
		Database: DatabaseConfig{
			Path:    filepath.Join(stateDir, "prefs.db"),
			Timeout: 1 * time.Second,
		},
		Map: MapConfig{
			MinRadius:     5,
			MaxRadius:     25,
			ClusterRadius: 3,
			FlyZoom:       5,
			CenterLat:     20,
			CenterLon:     0,
			Zoom:          2,
		},
		Export: ExportConfig{
			Dir: filepath.Join(stateDir, "exports"),
		},
		Share: ShareConfig{
			BaseURL: "http://localhost:8080/",
		},
		Lang: LangConfig{
			DefaultLanguage:     "en",
			ConfidenceThreshold: 0.6,
			ScanDelay:           80 * time.Millisecond,
		},
		UI: UIConfig{
			Dark: UIColors{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
				Land:       "#334155",
				TierA:      "#FF4136",
				TierB:      "#FF851B",
				TierC:      "#FFDC00",
			},
			Light: UIColors{
				Primary:    "#D94848",
				Secondary:  "#1F8A83",
				Accent:     "#2F9E86",
				Background: "#F8FAFC",
				Surface:    "#E2E8F0",
				Text:       "#1E293B",
				Muted:      "#64748B",
				Error:      "#DC2626",
				Success:    "#15803D",
				Land:       "#CBD5E1",
				TierA:      "#DC2626",
				TierB:      "#EA580C",
				TierC:      "#CA8A04",
			},
			Article: ArticleConfig{
				MaxDescriptionLength: 150,
				WordWrapMaxWidth:     120,
				WordWrapMinWidth:     40,
			},
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:        "q",
				Search:      "s",
				Find:        "f",
				Refresh:     "r",
				Timespan:    "t",
				Sort:        "o",
				Clusters:    "c",
				Heatmap:     "h",
				Share:       "y",
				Export:      "e",
				Theme:       "d",
				ToggleFeed:  "b",
				Languages:   "l",
				ResetView:   "0",
				OpenBrowser: "enter",
				Back:        "esc",
				Help:        "?",
			},
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(stateDir, "newsmap.log"),
		},
	}
}

// Load reads config.toml from the explicit path, ~/.config/newsmap or the
// working directory, layered over defaults and NEWSMAP_* environment
// variables. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Defaults are registered as nested maps so a partial section in the
	// file only overrides the keys it names.
	cfg := defaultConfig()
	for section, value := range sections(cfg) {
		v.SetDefault(section, sectionMap(value))
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "newsmap")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("NEWSMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand paths after loading
	expandPaths(&config)

	return &config, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand tilde
	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	// Convert to absolute path if not already absolute
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

// expandPaths expands all paths in the config
func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Export.Dir = expandPath(cfg.Export.Dir)
	cfg.Client.Geocode = expandPath(cfg.Client.Geocode)
	if cfg.Log.File != "-" {
		cfg.Log.File = expandPath(cfg.Log.File)
	}
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Sections are written as maps keyed by their mapstructure tags, with
	// durations as strings for TOML readability.
	for section, value := range sections(config) {
		v.Set(section, sectionMap(value))
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func sections(c *Config) map[string]any {
	return map[string]any{
		"client":   c.Client,
		"relay":    c.Relay,
		"database": c.Database,
		"map":      c.Map,
		"export":   c.Export,
		"share":    c.Share,
		"lang":     c.Lang,
		"ui":       c.UI,
		"keys":     c.Keys,
		"log":      c.Log,
	}
}

var durationType = reflect.TypeOf(time.Duration(0))

func sectionMap(section any) map[string]interface{} {
	rv := reflect.ValueOf(section)
	rt := rv.Type()
	out := make(map[string]interface{}, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		key := rt.Field(i).Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		fv := rv.Field(i)
		switch {
		case fv.Type() == durationType:
			out[key] = time.Duration(fv.Int()).String()
		case fv.Kind() == reflect.Struct:
			out[key] = sectionMap(fv.Interface())
		default:
			out[key] = fv.Interface()
		}
	}
	return out
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
