package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	actx "go.hackfix.me/scriptomate/app/context"
	aerrors "go.hackfix.me/scriptomate/app/errors"
	"go.hackfix.me/scriptomate/sequence"
	"go.hackfix.me/scriptomate/sequence/store"
	"go.hackfix.me/scriptomate/web/client"
)

// Next allocates and prints the next sequence number for a scripts directory.
type Next struct {
	Key           string `arg:"" help:"Scripts directory or sequence key. The key of a directory is its base name."`
	SequenceFlags `embed:""`
}

// Run the next command.
func (c *Next) Run(appCtx *actx.Context) error {
	key := sequenceKey(c.Key)
	num, err := allocate(appCtx, key, c.Mode)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(appCtx.Stdout, num)
	return err //nolint:wrapcheck // This is fine.
}

// sequenceKey returns the key counters are stored under for a directory path
// or key. Relative paths are resolved against the working directory, so "."
// yields the name of the current directory.
func sequenceKey(dirOrKey string) string {
	path := filepath.Clean(strings.TrimSpace(dirOrKey))
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Base(path)
}

// allocate returns the next number for key, using an allocator configured for
// mode.
func allocate(appCtx *actx.Context, key string, mode sequence.Mode) (string, error) {
	cfg := appCtx.Config.Sequence
	if mode == "" {
		mode = cfg.Mode.V
	}

	opts := []sequence.Option{
		sequence.WithTimeNow(appCtx.TimeNow),
		sequence.WithLogger(appCtx.Logger),
	}

	switch mode {
	case sequence.ModeRemote:
		if !cfg.RemoteURL.Valid {
			return "", aerrors.NewWith("remote mode requires the sequence.remote_url setting")
		}
		opts = append(opts, sequence.WithRemote(client.New(cfg.RemoteURL.V, cfg.Password.V, appCtx.Logger)))
	case sequence.ModeTableStorage:
		// A memory store would start over on every invocation, handing out the
		// same numbers again.
		if !cfg.Store.Valid || cfg.Store.V == store.TypeMemory {
			return "", aerrors.NewWith(
				"table mode requires a persistent counter store in the sequence.store setting",
				"store", cfg.Store.V)
		}
		st, err := store.Open(appCtx.Ctx, cfg.StoreOptions())
		if err != nil {
			return "", aerrors.NewWithCause("failed opening counter store", err, "store", cfg.Store.V)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				appCtx.Logger.Warn("failed closing counter store", "error", cerr.Error())
			}
		}()
		opts = append(opts, sequence.WithStore(st))
	}

	alloc, err := sequence.NewAllocator(opts...)
	if err != nil {
		return "", err //nolint:wrapcheck // Validation error.
	}

	num, err := alloc.NextNumber(appCtx.Ctx, key, mode)
	if err != nil {
		return "", aerrors.NewWithCause("failed allocating sequence number", err, "key", key, "mode", mode)
	}

	return num, nil
}
