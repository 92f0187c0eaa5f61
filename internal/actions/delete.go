package actions

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

// Deleter removes files marked for removal.
type Deleter struct {
	DryRun bool
	Logger zerolog.Logger
}

// Apply deletes files. Missing files are skipped and failures are counted;
// the returned error is only set when ctx is done.
func (d *Deleter) Apply(ctx context.Context, decisions []Decision) (Summary, error) {
	var sum Summary
	for _, dec := range decisions {
		d.Logger.Info().Str("keep", dec.Keep).Int("deleting", len(dec.Remove)).Msg("group")
		for _, p := range dec.Remove {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			if p == dec.Keep {
				continue
			}
			fi, err := os.Stat(p)
			if err != nil {
				d.Logger.Warn().Err(err).Str("path", p).Msg("skipping")
				sum.Skipped++
				continue
			}
			if d.DryRun {
				d.Logger.Info().Str("path", p).Msg("would delete")
			} else if err := os.Remove(p); err != nil {
				d.Logger.Error().Err(err).Str("path", p).Msg("delete failed")
				sum.Failed++
				continue
			} else {
				d.Logger.Info().Str("path", p).Msg("deleted")
			}
			sum.Done++
			sum.Bytes += fi.Size()
		}
	}
	return sum, nil
}
