package cli

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"

	actx "go.hackfix.me/scriptomate/app/context"
	aerrors "go.hackfix.me/scriptomate/app/errors"
)

// Setup runs the infrastructure scripts of a scripts root directory against the
// target database, and copies the script templates into the directory of the
// target connection.
type Setup struct {
	Root    string `arg:"" help:"Root directory containing _DbInfrastructure."`
	Target  `embed:""`
	Timeout time.Duration `help:"Time a single script may run for. Defaults to the configured statement timeout."`
}

// Run the setup command.
func (c *Setup) Run(appCtx *actx.Context) error {
	exec, closeDB, err := newExecutor(appCtx, c.Root, c.Target, c.Timeout)
	if err != nil {
		return err
	}
	defer closeDB()

	results, err := exec.RunInfrastructure(appCtx.Ctx, c.Root)
	if err != nil {
		return err //nolint:wrapcheck // Typed errors.
	}

	var failed int
	for _, r := range results {
		result := "Success"
		if r.Err != nil {
			result = r.Err.Err.Error()
			failed++
		}
		if _, err = fmt.Fprintf(appCtx.Stdout, "Ran %s with result: %s\n", r.Script.Name, result); err != nil {
			return err //nolint:wrapcheck // This is fine.
		}
	}

	name := c.Connection
	if name == "" {
		name = string(c.Driver)
	}
	if err = copyTemplates(appCtx, c.Root, name); err != nil {
		return err
	}

	if failed > 0 {
		return aerrors.NewWith("infrastructure scripts failed", "failed", failed, "total", len(results))
	}

	return nil
}

// copyTemplates copies the .sql files in <root>/_DbInfrastructure/ScriptTemplates
// into <root>/<connection name>, replacing backslashes in the name with dashes.
func copyTemplates(appCtx *actx.Context, root, connName string) error {
	srcDir := filepath.Join(root, "_DbInfrastructure", "ScriptTemplates")
	dstDir := filepath.Join(root, strings.ReplaceAll(connName, `\`, "-"))

	dir, err := appCtx.FS.Open(srcDir)
	if err != nil {
		if vfs.IsErrNotExist(err) {
			appCtx.Logger.Warn("script templates directory doesn't exist", "dir", srcDir)
			return nil
		}
		return aerrors.NewWithCause("failed opening script templates directory", err, "dir", srcDir)
	}
	entries, err := dir.Readdir(-1)
	_ = dir.Close()
	if err != nil {
		return aerrors.NewWithCause("failed reading script templates directory", err, "dir", srcDir)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	if err = appCtx.FS.MkdirAll(dstDir, 0o755); err != nil {
		return aerrors.NewWithCause("failed creating scripts directory", err, "dir", dstDir)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".sql") {
			continue
		}

		src := filepath.Join(srcDir, e.Name())
		data, err := vfs.ReadFile(appCtx.FS, src)
		if err != nil {
			return aerrors.NewWithCause("failed reading script template", err, "path", src)
		}

		dst := filepath.Join(dstDir, e.Name())
		if err = vfs.WriteFile(appCtx.FS, dst, data, 0o644); err != nil {
			return aerrors.NewWithCause("failed writing script template", err, "path", dst)
		}
		appCtx.Logger.Debug("copied script template", "path", dst)
	}

	return nil
}
