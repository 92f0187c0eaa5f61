package main

import (
	"context"
	"io"
	"time"

	"github.com/artyom/imagedups/internal/actions"
	"github.com/artyom/imagedups/internal/cache"
	"github.com/artyom/imagedups/internal/config"
	"github.com/artyom/imagedups/internal/grouping"
	"github.com/artyom/imagedups/internal/hashing"
	"github.com/artyom/imagedups/internal/report"
	"github.com/artyom/imagedups/internal/scan"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

type app struct {
	cfg      *config.Config
	stdout   io.Writer
	stderr   io.Writer
	debug    bool
	noColor  bool
	progress bool
}

func (a *app) logger() zerolog.Logger {
	level := a.cfg.Level()
	if a.debug {
		level = zerolog.DebugLevel
	}
	w := zerolog.ConsoleWriter{Out: a.stderr, NoColor: a.noColor || color.NoColor, TimeFormat: time.Kitchen}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func (a *app) run(ctx context.Context, dir string) error {
	cfg := a.cfg
	log := a.logger()

	kind, err := hashing.ParseKind(cfg.HashKind)
	if err != nil {
		return err
	}
	provider, err := hashing.New(kind, cfg.HashSize)
	if err != nil {
		return err
	}

	paths, err := scan.List(dir, scan.Options{Recursive: cfg.Recursive, Extensions: cfg.Extensions})
	if err != nil {
		return err
	}
	log.Info().Str("dir", dir).Int("images", len(paths)).Msg("scanning")

	hasher := &scan.Hasher{Provider: provider, Workers: cfg.Workers, Logger: log}
	if cfg.CachePath != "" {
		c, err := cache.OpenBolt(cfg.CachePath)
		if err != nil {
			return err
		}
		defer c.Close()
		hasher.Cache = c
	}
	var bar *progressbar.ProgressBar
	if a.progress && len(paths) > 0 {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetWriter(a.stderr),
			progressbar.OptionSetDescription("hashing"),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		hasher.Progress = func(string) { bar.Add(1) }
	}
	begin := time.Now()
	out, err := hasher.Hash(ctx, paths)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}
	log.Debug().Dur("took", time.Since(begin)).Int("hashed", len(out.Fingerprints)).
		Int("cached", out.CacheHits).Int("failed", len(out.Failures)).Msg("hashing done")

	engine := &grouping.Engine{Workers: cfg.Workers}
	res, err := engine.Group(ctx, out.Fingerprints, cfg.Threshold)
	if err != nil {
		return err
	}

	strategy, err := actions.ParseKeepStrategy(cfg.KeepStrategy)
	if err != nil {
		return err
	}
	// the file each group keeps is decided before reporting, so the reported
	// reference is never a file that the action below removes
	plan, err := actions.Plan(res.Groups(), strategy, nil)
	if err != nil {
		return err
	}

	console := report.Console{Out: a.stdout, Color: !a.noColor && !color.NoColor}
	if err := console.Write(res, plan); err != nil {
		return err
	}
	if err := console.Summary(res, len(out.Failures), out.CacheHits); err != nil {
		return err
	}

	if cfg.OutputJSON != "" {
		doc := report.NewDocument(res, plan, string(kind), cfg.HashSize, cfg.Threshold)
		doc.KeepStrategy = string(strategy)
		if err := report.WriteJSONFile(cfg.OutputJSON, doc); err != nil {
			return err
		}
		log.Info().Str("file", cfg.OutputJSON).Str("run_id", doc.RunID).Msg("JSON report written")
	}

	return a.act(ctx, log, plan)
}

func (a *app) act(ctx context.Context, log zerolog.Logger, plan []actions.Decision) error {
	cfg := a.cfg
	var action actions.Action
	switch {
	case cfg.MoveTo != "":
		action = &actions.Mover{Dest: cfg.MoveTo, DryRun: cfg.DryRun, Logger: log}
	case cfg.Delete:
		action = &actions.Deleter{DryRun: cfg.DryRun, Logger: log}
	default:
		return nil
	}
	if len(plan) == 0 {
		return nil
	}
	sum, err := action.Apply(ctx, plan)
	if err != nil {
		return err
	}
	log.Info().Bool("dry_run", cfg.DryRun).Int("done", sum.Done).Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).Int64("bytes", sum.Bytes).Msg("duplicates processed")
	return nil
}
