package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vellumhq/vellum/pkg/cache"
	"github.com/vellumhq/vellum/pkg/filters"
	"github.com/vellumhq/vellum/pkg/i18n"
	"github.com/vellumhq/vellum/pkg/validator"
	"github.com/vellumhq/vellum/pkg/vellum"
	"github.com/vellumhq/vellum/pkg/watch"
)

type engineConfig struct {
	TemplateDirs    []string `yaml:"template_dirs"`
	CacheDir        string   `yaml:"cache_dir,omitempty"`
	Locale          string   `yaml:"locale,omitempty"`
	TranslationsDir string   `yaml:"translations_dir,omitempty"`
	FiltersScript   string   `yaml:"filters_script,omitempty"`
}

func (c *engineConfig) loadConfig(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("decoding config file: %w", err)
	}
	return nil
}

func (c *engineConfig) validate() error {
	if len(c.TemplateDirs) == 0 {
		c.TemplateDirs = []string{"."}
	}
	return validator.All(
		validator.EachDir(c.TemplateDirs, "template_dirs"),
		validator.NoDuplicates(c.TemplateDirs, "template_dirs"),
	)
}

// build assembles the engine and, when a cache dir is configured, its
// store from the loaded config.
func (c *engineConfig) build(logger *slog.Logger) (*vellum.Engine, *cache.Store, error) {
	if err := c.validate(); err != nil {
		return nil, nil, err
	}
	reg := filters.Default()
	if c.FiltersScript != "" {
		if err := reg.LoadScript(c.FiltersScript); err != nil {
			return nil, nil, err
		}
	}
	opts := vellum.Options{
		Loader:  vellum.DirLoader{Roots: c.TemplateDirs},
		Filters: reg,
		Locale:  c.Locale,
		Logger:  logger,
	}
	if c.TranslationsDir != "" {
		tr, err := i18n.LoadCatalog(c.TranslationsDir)
		if err != nil {
			return nil, nil, err
		}
		opts.Translator = tr
	}
	var store *cache.Store
	if c.CacheDir != "" {
		s, err := cache.New(c.CacheDir, logger)
		if err != nil {
			return nil, nil, err
		}
		store = s
		opts.Cache = store
	}
	eng, err := vellum.New(opts)
	if err != nil {
		return nil, nil, err
	}
	return eng, store, nil
}

var (
	configPath  string
	verbose     bool
	contextPath string
	outputPath  string
)

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadEngineConfig() (engineConfig, error) {
	var cfg engineConfig
	if configPath != "" {
		if err := cfg.loadConfig(configPath); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// loadContext reads the render data context from a YAML file.
func loadContext(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ctx := map[string]any{}
	if err := yaml.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("decoding context file %q: %w", path, err)
	}
	return ctx, nil
}

var rootCmd = cobra.Command{
	Use:   "vellum",
	Short: "Compile and render vellum templates",
}

var renderCmd = cobra.Command{
	Use:   "render [template]",
	Short: "Render a template against a YAML data context",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("exactly one template name expected")
		}
		cfg, err := loadEngineConfig()
		if err != nil {
			return err
		}
		eng, _, err := cfg.build(newLogger())
		if err != nil {
			return err
		}
		ctx, err := loadContext(contextPath)
		if err != nil {
			return err
		}
		out, err := eng.Render(args[0], ctx)
		if err != nil {
			return err
		}
		if outputPath != "" {
			return os.WriteFile(outputPath, []byte(out), 0o644)
		}
		fmt.Print(out)
		return nil
	},
}

var checkCmd = cobra.Command{
	Use:   "check [template...]",
	Short: "Parse templates and report syntax errors",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("no templates specified")
		}
		cfg, err := loadEngineConfig()
		if err != nil {
			return err
		}
		eng, _, err := cfg.build(newLogger())
		if err != nil {
			return err
		}
		failed := false
		for _, name := range args {
			if err := eng.Check(name); err != nil {
				failed = true
				fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
				continue
			}
			fmt.Printf("%s: ok\n", name)
		}
		if failed {
			return fmt.Errorf("some templates failed to parse")
		}
		return nil
	},
}

var inspectCmd = cobra.Command{
	Use:   "inspect [template]",
	Short: "Print a template's parsed tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("exactly one template name expected")
		}
		cfg, err := loadEngineConfig()
		if err != nil {
			return err
		}
		eng, _, err := cfg.build(newLogger())
		if err != nil {
			return err
		}
		pt, err := eng.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Print(vellum.Pretty(pt))
		return nil
	},
}

var watchCmd = cobra.Command{
	Use:   "watch",
	Short: "Watch template dirs and invalidate stale cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadEngineConfig()
		if err != nil {
			return err
		}
		logger := newLogger()
		_, store, err := cfg.build(logger)
		if err != nil {
			return err
		}
		if store == nil {
			return fmt.Errorf("watch requires cache_dir to be configured")
		}
		w, err := watch.New(store, cfg.TemplateDirs, logger)
		if err != nil {
			return err
		}
		defer w.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		logger.Info("watching template dirs", "dirs", cfg.TemplateDirs)
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

var purgeCmd = cobra.Command{
	Use:   "purge",
	Short: "Remove all compiled-template cache artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadEngineConfig()
		if err != nil {
			return err
		}
		if cfg.CacheDir == "" {
			return fmt.Errorf("purge requires cache_dir to be configured")
		}
		store, err := cache.New(cfg.CacheDir, newLogger())
		if err != nil {
			return err
		}
		return store.Purge()
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the engine config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	renderCmd.Flags().StringVar(&contextPath, "context", "", "YAML file supplying the data context")
	renderCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write output to a file instead of stdout")

	rootCmd.AddCommand(&renderCmd, &checkCmd, &inspectCmd, &watchCmd, &purgeCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
