package script_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/scriptomate/script"
)

func writeFiles(t *testing.T, fs vfs.FileSystem, files map[string]string) {
	t.Helper()
	for path, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, vfs.WriteFile(fs, path, []byte(content), 0o644))
	}
}

func names(files []script.File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Name)
	}
	return out
}

func TestRepositoryListOrderedScripts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		files      map[string]string
		dir        string
		expScripts []string
		expSkipped []string
		expErr     string
	}{
		{
			name: "ok/numeric_order",
			files: map[string]string{
				"/db/010.a.DDL.x.sql":   "",
				"/db/002.a.DDL.x.sql":   "",
				"/db/001.5.a.DML.x.sql": "",
				"/db/001.a.DDL.x.sql":   "",
			},
			dir:        "/db",
			expScripts: []string{"001.a.DDL.x.sql", "001.5.a.DML.x.sql", "002.a.DDL.x.sql", "010.a.DDL.x.sql"},
		},
		{
			name: "ok/recursive_and_excluded_dirs",
			files: map[string]string{
				"/db/tables/003.a.DDL.t.sql":                    "",
				"/db/views/001.a.DDL.v.sql":                     "",
				"/db/_DbInfrastructure/DbObjects/000.a.b.c.sql": "",
				"/db/_NewScriptTemplate.sql":                    "",
				"/db/_templates/002.a.DDL.x.sql":                "",
			},
			dir:        "/db",
			expScripts: []string{"000.a.b.c.sql", "001.a.DDL.v.sql", "003.a.DDL.t.sql"},
			expSkipped: []string{"/db/_NewScriptTemplate.sql"},
		},
		{
			name: "ok/nested_below_excluded_dir",
			files: map[string]string{
				"/db/001.a.DDL.x.sql":              "",
				"/db/_archive/004.a.DDL.z.sql":     "",
				"/db/_archive/sub/005.a.DDL.y.sql": "",
			},
			dir:        "/db",
			expScripts: []string{"001.a.DDL.x.sql", "005.a.DDL.y.sql"},
		},
		{
			name: "ok/excluded_root",
			files: map[string]string{
				"/_db/001.a.DDL.x.sql":     "",
				"/_db/sub/002.a.DDL.y.sql": "",
			},
			dir:        "/_db",
			expScripts: []string{"002.a.DDL.y.sql"},
		},
		{
			name: "ok/skipped_and_non_sql",
			files: map[string]string{
				"/db/001.a.DDL.x.SQL": "",
				"/db/notes.sql":       "",
				"/db/01.a.DDL.x.sql":  "",
				"/db/002.a.DDL.x.txt": "",
			},
			dir:        "/db",
			expScripts: []string{"001.a.DDL.x.SQL"},
			expSkipped: []string{"/db/01.a.DDL.x.sql", "/db/notes.sql"},
		},
		{
			name: "ok/duplicates_kept_in_walk_order",
			files: map[string]string{
				"/db/b/005.a.DDL.x.sql":   "",
				"/db/a/005.0.b.DDL.y.sql": "",
				"/db/004.a.DDL.z.sql":     "",
			},
			dir:        "/db",
			expScripts: []string{"004.a.DDL.z.sql", "005.0.b.DDL.y.sql", "005.a.DDL.x.sql"},
		},
		{
			name:  "ok/empty",
			files: map[string]string{"/db/readme.md": ""},
			dir:   "/db",
		},
		{
			name:   "err/missing_dir",
			files:  map[string]string{},
			dir:    "/nope",
			expErr: "failed scanning scripts directory '/nope'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := memoryfs.New()
			writeFiles(t, fs, tt.files)
			repo := script.NewRepository(fs, slog.New(slog.DiscardHandler))

			listing, err := repo.ListOrderedScripts(context.Background(), tt.dir)
			if tt.expErr != "" {
				require.Error(t, err)
				assert.ErrorContains(t, err, tt.expErr)
				var serr *script.ScanError
				assert.ErrorAs(t, err, &serr)
				assert.Nil(t, listing)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, len(tt.expScripts), len(listing.Scripts))
			if len(tt.expScripts) > 0 {
				assert.Equal(t, tt.expScripts, names(listing.Scripts))
			}
			assert.ElementsMatch(t, tt.expSkipped, listing.Skipped)
		})
	}
}

func TestRepositoryListOrderedScriptsDeterministic(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	writeFiles(t, fs, map[string]string{
		"/db/x/007.a.DDL.x.sql": "",
		"/db/y/007.b.DDL.x.sql": "",
		"/db/z/007.c.DDL.x.sql": "",
		"/db/006.a.DDL.x.sql":   "",
	})
	repo := script.NewRepository(fs, slog.New(slog.DiscardHandler))

	first, err := repo.ListOrderedScripts(context.Background(), "/db")
	require.NoError(t, err)
	for range 5 {
		again, err := repo.ListOrderedScripts(context.Background(), "/db")
		require.NoError(t, err)
		assert.Equal(t, names(first.Scripts), names(again.Scripts))
	}
}

func TestRepositoryCanceledContext(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	writeFiles(t, fs, map[string]string{"/db/001.a.DDL.x.sql": ""})
	repo := script.NewRepository(fs, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := repo.ListOrderedScripts(ctx, "/db")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileContent(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	writeFiles(t, fs, map[string]string{"/db/001.a.DDL.x.sql": "CREATE TABLE t (id INT);"})
	listing, err := script.NewRepository(fs, slog.New(slog.DiscardHandler)).ListOrderedScripts(context.Background(), "/db")
	require.NoError(t, err)
	require.Len(t, listing.Scripts, 1)

	content, err := listing.Scripts[0].Content(fs)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE t (id INT);", content)
}

func TestRepositoryListSQLFiles(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	writeFiles(t, fs, map[string]string{
		"/db/_DbInfrastructure/DbObjects/b/Procs.sql":      "",
		"/db/_DbInfrastructure/DbObjects/DbScripts.sql":    "",
		"/db/_DbInfrastructure/DbObjects/_x/Functions.sql": "",
		"/db/_DbInfrastructure/DbObjects/readme.md":        "",
	})
	repo := script.NewRepository(fs, slog.New(slog.DiscardHandler))

	files, err := repo.ListSQLFiles(context.Background(), "/db/_DbInfrastructure/DbObjects")
	require.NoError(t, err)
	assert.Equal(t, []string{"DbScripts.sql", "Functions.sql", "Procs.sql"}, names(files))

	_, err = repo.ListSQLFiles(context.Background(), "/missing")
	var serr *script.ScanError
	assert.ErrorAs(t, err, &serr)
}
