package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	toml "github.com/pelletier/go-toml/v2"
)

const DefaultConfigFileName = "config.toml"

type Keymap struct {
	Quit          string `toml:"quit"`
	Help          string `toml:"help"`
	Today         string `toml:"today"`
	Refresh       string `toml:"refresh"`
	NextDay       string `toml:"next_day"`
	PrevDay       string `toml:"prev_day"`
	NextWeek      string `toml:"next_week"`
	PrevWeek      string `toml:"prev_week"`
	GotoDate      string `toml:"goto_date"`
	ToggleTask    string `toml:"toggle_task"`
	CyclePriority string `toml:"cycle_priority"`
	Archive       string `toml:"archive"`
	Search        string `toml:"search"`
	TagFilter     string `toml:"tag_filter"`
	ClearFilter   string `toml:"clear_filter"`
	Edit          string `toml:"edit"`
	Flush         string `toml:"flush"`
	FocusNext     string `toml:"focus_next"`
	WeekView      string `toml:"week_view"`
	MonthView     string `toml:"month_view"`
	YearView      string `toml:"year_view"`
	Stats         string `toml:"stats"`
}

type Config struct {
	DiaryDir string `toml:"diary_dir"`
	NotesDir string `toml:"notes_dir"`
	Editor   string `toml:"editor"`
	LogFile  string `toml:"log_file"`

	WeekStartDay       string `toml:"week_start_day"`
	StartupView        string `toml:"startup_view"`
	UpcomingWindowDays int    `toml:"upcoming_window_days"`

	AutoRefresh bool   `toml:"auto_refresh"`
	RefreshRate string `toml:"refresh_rate"`
	PollBudget  int    `toml:"poll_budget"`

	Keys Keymap `toml:"keys"`
}

func defaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DiaryDir: filepath.Join(home, "diary"),
		NotesDir: filepath.Join(home, "notes"),
		Editor:   defaultEditor(),
		LogFile:  filepath.Join(os.TempDir(), "daybook.log"),

		WeekStartDay:       "monday",
		StartupView:        "month",
		UpcomingWindowDays: 3,

		AutoRefresh: true,
		RefreshRate: "5s",
		PollBudget:  50,

		Keys: Keymap{
			Quit:          "q",
			Help:          "?",
			Today:         "o",
			Refresh:       "r",
			NextDay:       "l",
			PrevDay:       "h",
			NextWeek:      "j",
			PrevWeek:      "k",
			GotoDate:      "g",
			ToggleTask:    " ",
			CyclePriority: "p",
			Archive:       "A",
			Search:        "/",
			TagFilter:     "#",
			ClearFilter:   "c",
			Edit:          "e",
			Flush:         "w",
			FocusNext:     "tab",
			WeekView:      "1",
			MonthView:     "2",
			YearView:      "3",
			Stats:         "s",
		},
	}
}

// DefaultPath returns the first existing config file among the usual
// locations, or the XDG location when none exists yet.
func DefaultPath() string {
	candidates := []string{
		os.Getenv("DAYBOOK_CONFIG"),
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "daybook", DefaultConfigFileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".config", "daybook", DefaultConfigFileName))
	}

	fallback := ""
	for _, path := range candidates {
		if path == "" {
			continue
		}
		if fallback == "" {
			fallback = path
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return fallback
}

// LoadOrCreate reads the config file, writing the defaults first when it
// does not exist yet.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.expandPaths()
	return cfg, nil
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) expandPaths() {
	for _, p := range []*string{&c.DiaryDir, &c.NotesDir, &c.LogFile} {
		if expanded, err := homedir.Expand(*p); err == nil {
			*p = expanded
		}
	}
}

// WeekStart resolves week_start_day; anything unrecognized is Monday.
func (c *Config) WeekStart() time.Weekday {
	switch strings.ToLower(c.WeekStartDay) {
	case "sunday", "sun", "0":
		return time.Sunday
	case "saturday", "sat", "6":
		return time.Saturday
	}
	return time.Monday
}

// Refresh resolves refresh_rate, falling back to five seconds.
func (c *Config) Refresh() time.Duration {
	if d, err := time.ParseDuration(c.RefreshRate); err == nil && d > 0 {
		return d
	}
	return 5 * time.Second
}

func defaultEditor() string {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}
	return "vi"
}
