// Package config loads the sync configuration from .t2n/config.yaml and
// the environment. Store identity and credentials are required before any
// pass runs; their absence is reported as ErrMissing, which callers
// surface as a warning instead of a crash.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// DirName is the per-workspace configuration directory.
const DirName = ".t2n"

// Store modes.
const (
	ModeNotion = "notion"
	ModeSQLite = "sqlite"
)

// ErrMissing reports incomplete configuration. A pass aborts on it before
// any remote call is attempted.
var ErrMissing = errors.New("configuration missing")

// Config is the resolved sync configuration.
type Config struct {
	// Mode selects the remote store implementation: notion or sqlite.
	Mode string

	// NotionToken and NotionDatabaseID identify the Notion target.
	// Both are required in notion mode.
	NotionToken      string
	NotionDatabaseID string

	// StorePath is the database file used in sqlite mode.
	StorePath string

	// Extensions lists the file extensions scanned for markers.
	Extensions []string

	// PullInterval is how often watch mode runs a pull pass.
	PullInterval time.Duration

	// DashboardPort is the WebSocket dashboard listen port.
	DashboardPort int

	// LogFile, when set, sends daemon logs to a rotated file instead of
	// stderr.
	LogFile string
}

// DefaultExtensions covers the common source file types.
var DefaultExtensions = []string{
	".go", ".ts", ".tsx", ".js", ".jsx", ".py", ".java",
	".c", ".h", ".cpp", ".cc", ".rs", ".rb", ".cs", ".swift",
}

const (
	cfgKeyMode          = "store.mode"
	cfgKeyStorePath     = "store.path"
	cfgKeyNotionToken   = "notion.token"
	cfgKeyNotionDB      = "notion.database_id"
	cfgKeyExtensions    = "sync.extensions"
	cfgKeyPullInterval  = "sync.pull_interval"
	cfgKeyDashboardPort = "dashboard.port"
	cfgKeyLogFile       = "log.file"
)

// defaultConfigYAML is written on first init.
const defaultConfigYAML = `# t2n configuration

store:
  # Remote store: "notion" syncs to a Notion database,
  # "sqlite" keeps everything in a local database file.
  mode: notion
  # path: .t2n/store.db

notion:
  # Prefer the NOTION_TOKEN / NOTION_DATABASE_ID environment variables
  # over committing credentials here.
  # token: secret_...
  # database_id: ...

sync:
  # pull_interval: 30s
  # extensions: [".go", ".ts"]

dashboard:
  # port: 8080
`

// FindRoot walks up from start looking for a directory containing
// DirName. It returns the workspace root, or start itself when no
// configured ancestor exists.
func FindRoot(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return start
	}
	probe := dir
	for {
		if info, err := os.Stat(filepath.Join(probe, DirName)); err == nil && info.IsDir() {
			return probe
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			return dir
		}
		probe = parent
	}
}

// Load reads config.yaml from workspaceDir/.t2n, applying defaults and
// environment overrides (NOTION_TOKEN, NOTION_DATABASE_ID). A missing
// config file is not an error; validation decides what is fatal.
func Load(workspaceDir string) (*Config, error) {
	v := viper.New()
	v.SetDefault(cfgKeyMode, ModeNotion)
	v.SetDefault(cfgKeyStorePath, filepath.Join(DirName, "store.db"))
	v.SetDefault(cfgKeyExtensions, DefaultExtensions)
	v.SetDefault(cfgKeyPullInterval, "30s")
	v.SetDefault(cfgKeyDashboardPort, 8080)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(workspaceDir, DirName))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Mode:             v.GetString(cfgKeyMode),
		NotionToken:      v.GetString(cfgKeyNotionToken),
		NotionDatabaseID: v.GetString(cfgKeyNotionDB),
		StorePath:        v.GetString(cfgKeyStorePath),
		Extensions:       v.GetStringSlice(cfgKeyExtensions),
		PullInterval:     v.GetDuration(cfgKeyPullInterval),
		DashboardPort:    v.GetInt(cfgKeyDashboardPort),
		LogFile:          v.GetString(cfgKeyLogFile),
	}

	// Credentials come from the environment first.
	if tok := os.Getenv("NOTION_TOKEN"); tok != "" {
		cfg.NotionToken = tok
	}
	if db := os.Getenv("NOTION_DATABASE_ID"); db != "" {
		cfg.NotionDatabaseID = db
	}

	if !filepath.IsAbs(cfg.StorePath) {
		cfg.StorePath = filepath.Join(workspaceDir, cfg.StorePath)
	}

	return cfg, nil
}

// Validate checks that the selected store mode is fully configured.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeNotion:
		if c.NotionToken == "" {
			return fmt.Errorf("%w: notion token not set (notion.token or NOTION_TOKEN)", ErrMissing)
		}
		if c.NotionDatabaseID == "" {
			return fmt.Errorf("%w: notion database id not set (notion.database_id or NOTION_DATABASE_ID)", ErrMissing)
		}
	case ModeSQLite:
		if c.StorePath == "" {
			return fmt.Errorf("%w: store.path not set", ErrMissing)
		}
	default:
		return fmt.Errorf("%w: unknown store mode %q", ErrMissing, c.Mode)
	}
	return nil
}

// Init creates workspaceDir/.t2n with a default config.yaml. An existing
// config file is left untouched.
func Init(workspaceDir string) (string, error) {
	dir := filepath.Join(workspaceDir, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat config file: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return "", fmt.Errorf("write default config: %w", err)
	}
	return path, nil
}
