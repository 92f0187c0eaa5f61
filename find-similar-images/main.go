// Command find-similar-images scans directory for images and reports groups of
// visually similar images (potential duplicates), optionally moving or
// deleting all but one image of each group.
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/artyom/imagedups/internal/actions"
	"github.com/artyom/imagedups/internal/config"
	"github.com/artyom/imagedups/internal/hashing"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type cliFlags struct {
	configPath string
	debug      bool
	noColor    bool
	progress   bool

	hashKind     string
	hashSize     int
	threshold    int
	recursive    bool
	workers      int
	cachePath    string
	extensions   []string
	keepStrategy string
	outputJSON   string
	moveTo       string
	delete       bool
	dryRun       bool
}

func newRootCmd() *cobra.Command {
	cmd, _ := newCommand()
	return cmd
}

func newCommand() (*cobra.Command, *cliFlags) {
	f := new(cliFlags)
	cmd := &cobra.Command{
		Use:   "find-similar-images [flags] DIR",
		Short: "Find duplicate and near-duplicate images",
		Long: `Computes a perceptual hash of every image in DIR and reports groups of
images whose hashes differ by at most --threshold bits.

Settings are taken from built-in defaults, then the --config file, then
IMAGEDUPS_* environment variables, then flags given on the command line.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.resolve(cmd)
			if err != nil {
				return err
			}
			a := &app{
				cfg:      cfg,
				stdout:   cmd.OutOrStdout(),
				stderr:   cmd.ErrOrStderr(),
				debug:    f.debug,
				noColor:  f.noColor,
				progress: f.progress,
			}
			return a.run(cmd.Context(), args[0])
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "YAML settings `file`")
	fl.BoolVar(&f.debug, "debug", false, "enable debug logging")
	fl.BoolVar(&f.noColor, "no-color", false, "disable colored output")
	fl.BoolVar(&f.progress, "progress", true, "show progress bar while hashing")

	fl.StringVar(&f.hashKind, "hash-type", string(hashing.PHash), "perceptual hash: phash, ahash, dhash or whash")
	fl.IntVar(&f.hashSize, "hash-size", hashing.DefaultSize, "hash grid side; the hash has size*size bits")
	fl.IntVarP(&f.threshold, "threshold", "t", config.DefaultThreshold, "maximum number of differing bits for images to be similar")
	fl.BoolVarP(&f.recursive, "recursive", "r", false, "scan subdirectories")
	fl.IntVar(&f.workers, "workers", 0, "number of parallel workers (default GOMAXPROCS)")
	fl.StringVar(&f.cachePath, "cache", "", "fingerprint cache database `file`")
	fl.StringSliceVar(&f.extensions, "ext", nil, "image file extensions to scan")
	fl.StringVar(&f.keepStrategy, "keep-strategy", string(actions.KeepFirst), "image kept in each group: first, largest or oldest")
	fl.StringVarP(&f.outputJSON, "output-json", "o", "", "write groups as JSON to `file`")
	fl.StringVar(&f.moveTo, "move-duplicates-to", "", "move all but the kept image of each group into `dir`")
	fl.BoolVar(&f.delete, "delete", false, "delete all but the kept image of each group")
	fl.BoolVar(&f.dryRun, "dry-run", false, "report what would be moved or deleted without touching files")
	return cmd, f
}

// resolve layers settings: defaults, config file, environment, then flags set
// explicitly on the command line.
func (f *cliFlags) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	fl := cmd.Flags()
	if fl.Changed("hash-type") {
		cfg.HashKind = f.hashKind
	}
	if fl.Changed("hash-size") {
		cfg.HashSize = f.hashSize
	}
	if fl.Changed("threshold") {
		cfg.Threshold = f.threshold
	}
	if fl.Changed("recursive") {
		cfg.Recursive = f.recursive
	}
	if fl.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fl.Changed("cache") {
		cfg.CachePath = f.cachePath
	}
	if fl.Changed("ext") {
		cfg.Extensions = f.extensions
	}
	if fl.Changed("keep-strategy") {
		cfg.KeepStrategy = f.keepStrategy
	}
	if fl.Changed("output-json") {
		cfg.OutputJSON = f.outputJSON
	}
	if fl.Changed("move-duplicates-to") {
		cfg.MoveTo = f.moveTo
	}
	if fl.Changed("delete") {
		cfg.Delete = f.delete
	}
	if fl.Changed("dry-run") {
		cfg.DryRun = f.dryRun
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
