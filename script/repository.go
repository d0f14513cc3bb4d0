package script

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// Listing is the result of scanning a scripts directory.
type Listing struct {
	// Scripts are the scripts that follow the naming convention, in the order
	// they should be applied.
	Scripts []File
	// Skipped are the paths of .sql files that don't follow the naming
	// convention.
	Skipped []string
}

// Repository finds migration scripts on a filesystem.
type Repository struct {
	fs     vfs.FileSystem
	logger *slog.Logger
}

// NewRepository returns a new Repository that reads from fs.
func NewRepository(fs vfs.FileSystem, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{fs: fs, logger: logger.With("component", "script-repository")}
}

// FS returns the filesystem the repository reads from.
func (r *Repository) FS() vfs.FileSystem {
	return r.fs
}

// ListOrderedScripts walks dir recursively and returns all .sql files whose
// name starts with an order number, sorted in ascending numeric order. Files
// directly within a directory whose name starts with '_' (e.g. infrastructure
// and template folders) are ignored, though the directories below it are still
// scanned. Scripts sharing the same number are all returned, in the order they
// were found.
func (r *Repository) ListOrderedScripts(ctx context.Context, dir string) (*Listing, error) {
	listing := &Listing{}
	if err := r.walk(ctx, dir, listing); err != nil {
		return nil, err
	}

	sort.SliceStable(listing.Scripts, func(i, j int) bool {
		return listing.Scripts[i].Key.Cmp(listing.Scripts[j].Key) < 0
	})

	for i := 1; i < len(listing.Scripts); i++ {
		prev, cur := listing.Scripts[i-1], listing.Scripts[i]
		if prev.Key.Equal(cur.Key) {
			r.logger.Warn("found scripts with duplicate number",
				"number", cur.Key.String(), "first", prev.Path, "second", cur.Path)
		}
	}

	if len(listing.Skipped) > 0 {
		r.logger.Debug("skipped files not following the naming convention",
			"dir", dir, "count", len(listing.Skipped))
	}

	return listing, nil
}

func (r *Repository) walk(ctx context.Context, dir string, listing *Listing) error {
	if err := ctx.Err(); err != nil {
		return err //nolint:wrapcheck // Context errors are returned as is.
	}

	entries, err := readDir(r.fs, dir)
	if err != nil {
		return &ScanError{Dir: dir, Err: err}
	}

	excluded := strings.HasPrefix(filepath.Base(dir), "_")
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err = r.walk(ctx, path, listing); err != nil {
				return err
			}
			continue
		}

		if excluded || !strings.EqualFold(filepath.Ext(entry.Name()), ".sql") {
			continue
		}

		key, ok := ParseOrderKey(entry.Name())
		if !ok {
			listing.Skipped = append(listing.Skipped, path)
			continue
		}

		listing.Scripts = append(listing.Scripts, File{Path: path, Name: entry.Name(), Key: key})
	}

	return nil
}

// readDir returns the directory entries sorted by name.
func readDir(fs vfs.FileSystem, dir string) ([]os.FileInfo, error) {
	f, err := fs.Open(dir)
	if err != nil {
		return nil, err //nolint:wrapcheck // Wrapped in ScanError.
	}
	defer f.Close()

	entries, err := f.Readdir(-1)
	if err != nil {
		return nil, err //nolint:wrapcheck // Wrapped in ScanError.
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	return entries, nil
}

// ListSQLFiles returns all .sql files under dir, including those in directories
// starting with '_', sorted by file name. Their naming isn't checked, so the
// returned files have a zero Key.
func (r *Repository) ListSQLFiles(ctx context.Context, dir string) ([]File, error) {
	var files []File
	var walk func(dir string) error
	walk = func(dir string) error {
		if err := ctx.Err(); err != nil {
			return err //nolint:wrapcheck // Context errors are returned as is.
		}

		entries, err := readDir(r.fs, dir)
		if err != nil {
			return &ScanError{Dir: dir, Err: err}
		}
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			if entry.IsDir() {
				if err = walk(path); err != nil {
					return err
				}
				continue
			}
			if strings.EqualFold(filepath.Ext(entry.Name()), ".sql") {
				files = append(files, File{Path: path, Name: entry.Name()})
			}
		}
		return nil
	}

	if err := walk(dir); err != nil {
		return nil, err
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}
