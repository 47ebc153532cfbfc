// Package main provides the soundpool command line interface.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"soundpool/internal/clips"
	"soundpool/pkg/sound"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool
	mockAudio  bool

	rootCmd = &cobra.Command{
		Use:   "soundpool [DIR]",
		Short: "Pooled sound effect playback for the CLI",
		Long: paragraph(
			fmt.Sprintf("\nList and play WAV sound effects through a %s of reusable playback sources.", keyword("pool")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return applyOptions(cmd)
		},
		RunE: listClips,
	}
)

// applyOptions pulls config values from viper after flag parsing.
func applyOptions(*cobra.Command) error {
	debug = viper.GetBool("debug")
	mockAudio = viper.GetBool("mock")
	sound.InitializeLogging(debug)
	if mockAudio {
		os.Setenv("SOUNDPOOL_MOCK_AUDIO", "true")
	}
	return nil
}

// expandPath expands a leading tilde and environment variables.
func expandPath(path string) string {
	s, err := homedir.Expand(path)
	if err != nil {
		return os.ExpandEnv(path)
	}
	return os.ExpandEnv(s)
}

// listClips scans a directory for WAV files and prints what it finds.
func listClips(_ *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = expandPath(args[0])
	}

	paths, err := clips.Scan(dir)
	if err != nil {
		return fmt.Errorf("unable to scan %s: %w", dir, err)
	}
	if len(paths) == 0 {
		fmt.Println(subtle("No WAV files found in " + dir))
		return nil
	}

	cfg, err := sound.LoadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	lib := clips.NewLibrary(cfg.Format)
	for _, p := range paths {
		clip, err := lib.Load(p)
		if err != nil {
			fmt.Printf("  %s %s\n", errStyle.Render("✗"), subtle(fmt.Sprintf("%s: %v", filepath.Base(p), err)))
			continue
		}
		fmt.Printf("  %s %s %s\n",
			okStyle.Render("✓"),
			clip.Name,
			subtle(fmt.Sprintf("%s, %s", clip.Duration().Round(10*time.Millisecond), humanize.Bytes(uint64(clip.Size())))))
	}

	count, size := lib.Stats()
	fmt.Println()
	fmt.Println(subtle(fmt.Sprintf("%d playable clips, %s decoded", count, size)))
	return nil
}

// newManager builds a manager from the effective configuration.
func newManager() (*sound.Manager, sound.Config, error) {
	cfg, err := sound.LoadConfig(viper.GetViper())
	if err != nil {
		return nil, cfg, err
	}
	if mockAudio {
		cfg.Output = sound.OutputMock
	}
	m, err := sound.NewManager(cfg)
	return m, cfg, err
}

func setupLog() (func() error, error) {
	// Log to a file when requested, otherwise discard. The default log
	// output would corrupt the styled terminal output.
	if file := os.Getenv("SOUNDPOOL_LOGFILE"); file != "" {
		f, err := os.OpenFile(expandPath(file), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("error opening log file: %w", err)
		}
		log.SetOutput(f)
		log.SetLevel(log.DebugLevel)
		return f.Close, nil
	}
	log.SetOutput(io.Discard)
	return func() error { return nil }, nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&mockAudio, "mock", false, "use the silent mock audio backend")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("mock", rootCmd.PersistentFlags().Lookup("mock"))

	viper.SetDefault("debug", false)
	viper.SetDefault("mock", false)
	viper.SetDefault("sound.batch_size", sound.DefaultBatchSize)
	viper.SetDefault("sound.master_volume", 1.0)
	viper.SetDefault("sound.sfx_volume", 1.0)
	viper.SetDefault("sound.music_volume", 0.7)
	viper.SetDefault("sound.click_volume", 0.8)

	rootCmd.AddCommand(playCmd, musicCmd, doctorCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "soundpool")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "soundpool")}, dirs...)
	}

	if c := os.Getenv("SOUNDPOOL_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("soundpool")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("soundpool")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		viper.OnConfigChange(func(e fsnotify.Event) {
			log.Debug("Configuration file changed", "path", e.Name, "op", e.Op.String())
		})
		viper.WatchConfig()
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "soundpool.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
