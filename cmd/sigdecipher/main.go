package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ytget/sigdecipher/decipher"
	"github.com/ytget/sigdecipher/internal/logger"
	"github.com/ytget/sigdecipher/internal/source"
)

type globalFlags struct {
	logLevel   string
	logFormat  string
	logConfig  string
	patterns   string
	archiveDir string
	maxDepth   int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "sigdecipher",
		Short:         "Decipher stream tokens with a player script's transform",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(g)
		},
	}

	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (TRACE, DEBUG, INFO, WARN, ERROR)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "Log format (text, json, color)")
	root.PersistentFlags().StringVar(&g.logConfig, "log-config", "", "Path to a JSON logging config")
	root.PersistentFlags().StringVar(&g.patterns, "patterns", "", "JSON file of entry patterns appended to the built-in table")
	root.PersistentFlags().StringVar(&g.archiveDir, "archive", "", "Directory archiving scripts by version key")
	root.PersistentFlags().IntVar(&g.maxDepth, "max-depth", 0, "Maximum nested helper calls (0 uses the default)")

	root.AddCommand(newDecodeCmd(g), newInspectCmd(g), newAuxCmd())
	return root
}

func setupLogging(g *globalFlags) error {
	cfg := logger.EnvironmentConfig()
	if g.logConfig != "" {
		fileCfg, err := logger.LoadConfigFromFile(g.logConfig)
		if err != nil {
			return err
		}
		cfg = fileCfg
	}
	if g.logLevel != "" {
		cfg.Level = strings.ToUpper(g.logLevel)
	}
	if g.logFormat != "" {
		cfg.Format = g.logFormat
	}
	if err := cfg.ValidateConfig(); err != nil {
		return err
	}
	l, err := logger.CreateLoggerFromConfig(cfg)
	if err != nil {
		return err
	}
	logger.SetGlobalLogger(l)
	return nil
}

// newEngine builds an engine from the global flags.
func newEngine(g *globalFlags) (*decipher.Engine, error) {
	patterns := decipher.DefaultPatterns()
	if g.patterns != "" {
		f, err := os.Open(g.patterns)
		if err != nil {
			return nil, fmt.Errorf("open patterns: %w", err)
		}
		defer func() { _ = f.Close() }()
		extra, err := decipher.LoadPatterns(f)
		if err != nil {
			return nil, err
		}
		if patterns, err = patterns.Append(extra.Patterns()...); err != nil {
			return nil, err
		}
	}
	return decipher.NewWith(decipher.Config{MaxDepth: g.maxDepth, Patterns: patterns}), nil
}

// scriptInput names a script and the version key it resolves under.
type scriptInput struct {
	path    string
	url     string
	version string
}

func (in *scriptInput) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&in.path, "script", "s", "", "Player script file (.br files are brotli-decompressed)")
	cmd.Flags().StringVar(&in.url, "url", "", "Player script URL, used to derive the version key")
	cmd.Flags().StringVar(&in.version, "version", "", "Explicit version key")
}

// load returns the version key and script text. Without --script the
// script comes from the archive; a loaded script is archived when an
// archive is configured.
func (in *scriptInput) load(g *globalFlags) (string, string, error) {
	log := logger.WithComponent(logger.ComponentApp)

	var archive source.Archive
	if g.archiveDir != "" {
		fa, err := source.NewFileArchive(g.archiveDir)
		if err != nil {
			return "", "", err
		}
		archive = fa
	}

	key := in.version
	if key == "" && in.url != "" {
		key = source.VersionKey(in.url)
	}

	if in.path == "" {
		if archive == nil || key == "" {
			return "", "", fmt.Errorf("--script is required unless --archive and a version are given")
		}
		script, ok := archive.Get(key)
		if !ok {
			return "", "", fmt.Errorf("version %s is not archived", key)
		}
		log.Debug("script loaded from archive", logger.Fields{"version": key})
		return key, script, nil
	}

	script, err := source.Load(in.path)
	if err != nil {
		return "", "", err
	}
	if key == "" {
		key = source.ContentKey(script)
	}
	if archive != nil {
		if err := archive.Set(key, script); err != nil {
			log.Warn("archive write failed", logger.Fields{"version": key, "error": err.Error()})
		}
	}
	return key, script, nil
}

// exitCode separates layout drift (3) from grammar mismatches (4) and other
// decipher failures (2). Anything else exits 1.
func exitCode(err error) int {
	switch {
	case decipher.CodeOf(err) == "":
		return 1
	case decipher.IsLayoutError(err):
		return 3
	case decipher.IsGrammarError(err):
		return 4
	}
	return 2
}
