package cmd

import (
	"fmt"
	"os"

	"daybook/internal/config"
	"daybook/internal/core"
	"daybook/internal/livesync"
	"daybook/internal/logging"
	"daybook/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	diaryDir string
	notesDir string
	cfg      config.Config
)

var rootCmd = &cobra.Command{
	Use:   "daybook",
	Short: "A terminal diary, task and timeblock manager",
	Long: `Daybook is a terminal frontend for a directory of plain markdown
files: one file per diary day and one per task note, with YAML
frontmatter carrying status, due dates and recurrence rules. The files
stay the source of truth; daybook reconciles with external edits while
it runs.`,
	RunE: runTUI,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/daybook/config.toml)")
	rootCmd.PersistentFlags().StringVar(&diaryDir, "diary-dir", "", "diary directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&notesDir, "notes-dir", "", "notes directory (overrides config)")
}

func initConfig() {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}

	var err error
	cfg, err = config.LoadOrCreate(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if diaryDir != "" {
		cfg.DiaryDir = diaryDir
	}
	if notesDir != "" {
		cfg.NotesDir = notesDir
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	log, closer := logging.Open(cfg.LogFile)
	defer closer.Close()

	for _, dir := range []string{cfg.DiaryDir, cfg.NotesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	c := core.New(cfg, log)
	model := ui.NewModel(&cfg, c)
	p := tea.NewProgram(model, tea.WithAltScreen())

	// The watcher only nudges the loop; merging stays on the tick path.
	watcher, err := livesync.NewDirWatcher(func(string) {
		p.Send(ui.RefreshMsg{})
	})
	if err != nil {
		log.Warn().Err(err).Msg("file watcher unavailable, relying on periodic polls")
	} else {
		defer watcher.Close()
		for _, dir := range []string{cfg.DiaryDir, cfg.NotesDir} {
			if err := watcher.AddDir(dir); err != nil {
				log.Warn().Err(err).Str("dir", dir).Msg("cannot watch directory")
			}
		}
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
