package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Summary counts what an action did.
type Summary struct {
	// Done is the number of files moved or deleted.
	Done    int
	Skipped int
	Failed  int
	// Bytes is the total size of files in Done.
	Bytes int64
}

// Action applies decisions to the file system.
type Action interface {
	Apply(ctx context.Context, decisions []Decision) (Summary, error)
}

// Mover moves files marked for removal into Dest, keeping their base names
// and appending _dupN before the extension on collisions.
type Mover struct {
	Dest   string
	DryRun bool
	Logger zerolog.Logger
}

// Apply moves files. Missing sources are skipped and failures are counted;
// the returned error is only set when Dest cannot be created or ctx is done.
func (m *Mover) Apply(ctx context.Context, decisions []Decision) (Summary, error) {
	var sum Summary
	if !m.DryRun {
		if err := os.MkdirAll(m.Dest, 0o755); err != nil {
			return sum, err
		}
	}
	taken := make(map[string]struct{})
	for _, d := range decisions {
		m.Logger.Info().Str("keep", d.Keep).Int("moving", len(d.Remove)).Msg("group")
		for _, src := range d.Remove {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			if src == d.Keep {
				continue
			}
			fi, err := os.Stat(src)
			if err != nil {
				m.Logger.Warn().Err(err).Str("path", src).Msg("skipping")
				sum.Skipped++
				continue
			}
			dst, err := freeName(m.Dest, filepath.Base(src), taken)
			if err != nil {
				m.Logger.Error().Err(err).Str("path", src).Msg("move failed")
				sum.Failed++
				continue
			}
			taken[dst] = struct{}{}
			if m.DryRun {
				m.Logger.Info().Str("from", src).Str("to", dst).Msg("would move")
			} else if err := moveFile(src, dst); err != nil {
				m.Logger.Error().Err(err).Str("path", src).Msg("move failed")
				sum.Failed++
				continue
			} else {
				m.Logger.Info().Str("from", src).Str("to", dst).Msg("moved")
			}
			sum.Done++
			sum.Bytes += fi.Size()
		}
	}
	return sum, nil
}

// freeName returns a path inside dir for name that neither exists nor is in
// taken.
func freeName(dir, name string, taken map[string]struct{}) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := filepath.Join(dir, name)
	for i := 1; ; i++ {
		if _, ok := taken[candidate]; !ok {
			_, err := os.Lstat(candidate)
			if errors.Is(err, fs.ErrNotExist) {
				return candidate, nil
			}
			if err != nil {
				return "", err
			}
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_dup%d%s", stem, i, ext))
	}
}

// moveFile renames src to dst, falling back to copy and remove when rename
// fails, e.g. across file systems.
func moveFile(src, dst string) error {
	rerr := os.Rename(src, dst)
	if rerr == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return errors.Join(rerr, err)
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	fi, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Chtimes(dst, fi.ModTime(), fi.ModTime())
}
