package scan

import (
	"context"
	"errors"
	"image"
	"os"
	"runtime"

	"github.com/artyom/imagedups/internal/cache"
	"github.com/artyom/imagedups/internal/fingerprint"
	"github.com/artyom/imagedups/internal/hashing"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Failure records a file that could not be fingerprinted.
type Failure struct {
	Path string
	Err  error
}

func (f Failure) Error() string { return f.Path + ": " + f.Err.Error() }
func (f Failure) Unwrap() error { return f.Err }

// Output is the outcome of hashing a list of files.
type Output struct {
	// Fingerprints of successfully processed files, in input order.
	Fingerprints []fingerprint.Fingerprint
	// Failures in input order.
	Failures []Failure
	// CacheHits is the number of fingerprints taken from the cache.
	CacheHits int
}

// Hasher fingerprints files on a pool of goroutines.
type Hasher struct {
	Provider hashing.Provider
	// Cache is consulted before decoding a file; nil disables caching.
	Cache cache.Cache
	// Workers defaults to GOMAXPROCS.
	Workers int
	Logger  zerolog.Logger
	// Progress, if set, is called once per processed file. It may be called
	// from several goroutines at once.
	Progress func(path string)

	// decode is hashing.Open unless replaced in tests.
	decode func(path string) (image.Image, error)
}

type outcome struct {
	fp  fingerprint.Fingerprint
	err error
	hit bool
}

// Hash fingerprints paths. Files that cannot be read or decoded are reported
// as failures and skipped; the returned error is only non-nil when ctx is
// done.
func (h *Hasher) Hash(ctx context.Context, paths []string) (*Output, error) {
	if h.Provider == nil {
		return nil, errors.New("scan: no fingerprint provider")
	}
	workers := h.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	c := h.Cache
	if c == nil {
		c = cache.Nop{}
	}
	results := make([]outcome, len(paths))
	group, ctx := errgroup.WithContext(ctx)
	ch := make(chan int)
	group.Go(func() error {
		defer close(ch)
		for i := range paths {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ch <- i:
			}
		}
		return nil
	})
	for i := 0; i < workers; i++ {
		group.Go(func() error {
			for idx := range ch {
				results[idx] = h.one(c, paths[idx])
				if h.Progress != nil {
					h.Progress(paths[idx])
				}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	out := &Output{Fingerprints: make([]fingerprint.Fingerprint, 0, len(paths))}
	for i, r := range results {
		if r.err != nil {
			h.Logger.Warn().Err(r.err).Str("path", paths[i]).Msg("failed to process image")
			out.Failures = append(out.Failures, Failure{Path: paths[i], Err: r.err})
			continue
		}
		if r.hit {
			out.CacheHits++
		}
		out.Fingerprints = append(out.Fingerprints, r.fp)
	}
	return out, nil
}

func (h *Hasher) one(c cache.Cache, path string) outcome {
	info, err := os.Stat(path)
	if err != nil {
		return outcome{err: err}
	}
	key := cache.KeyFor(path, info, string(h.Provider.Kind()), h.Provider.Size())
	fp, ok, err := c.Get(key)
	switch {
	case err != nil:
		h.Logger.Warn().Err(err).Str("path", path).Msg("cache lookup failed")
	case ok:
		h.Logger.Debug().Str("path", path).Msg("cache hit")
		return outcome{fp: fp, hit: true}
	}
	decode := h.decode
	if decode == nil {
		decode = hashing.Open
	}
	img, err := decode(path)
	if err != nil {
		return outcome{err: err}
	}
	fp, err = h.Provider.Fingerprint(path, img)
	if err != nil {
		return outcome{err: err}
	}
	if err := c.Put(key, fp); err != nil {
		h.Logger.Warn().Err(err).Str("path", path).Msg("cache store failed")
	}
	return outcome{fp: fp}
}
