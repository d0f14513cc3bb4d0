package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mandelsoft/vfs/pkg/vfs"

	actx "go.hackfix.me/scriptomate/app/context"
	aerrors "go.hackfix.me/scriptomate/app/errors"
)

// templateFile is the name of the template new scripts are created from,
// expected in each scripts directory.
const templateFile = "_NewScriptTemplate.sql"

// NewScript creates a new script file numbered with the next sequence number.
type NewScript struct {
	Dir           string `arg:"" help:"Scripts directory to create the script in."`
	Author        string `required:"" help:"Script author."`
	Type          string `required:"" enum:"DDL,DML" help:"Script type. Valid values: ${enum}"`
	Description   string `required:"" help:"Short description, used in the file name."`
	SequenceFlags `embed:""`
}

// Run the new command.
func (c *NewScript) Run(appCtx *actx.Context) error {
	if err := checkDir(appCtx.FS, c.Dir); err != nil {
		return err
	}

	tplPath := filepath.Join(c.Dir, templateFile)
	tpl, err := vfs.ReadFile(appCtx.FS, tplPath)
	if err != nil {
		return aerrors.NewWithCause("failed reading script template", err, "path", tplPath)
	}

	num, err := allocate(appCtx, sequenceKey(c.Dir), c.Mode)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("%s.%s.%s.%s.sql", num, c.Author, c.Type, c.Description)
	path := filepath.Join(c.Dir, name)
	if _, serr := appCtx.FS.Stat(path); serr == nil {
		return aerrors.NewWith("script already exists", "path", path)
	}

	contents := strings.NewReplacer(
		"{0}", num,
		"{1}", c.Type,
		"{2}", c.Author,
		"{3}", c.Description,
	).Replace(string(tpl))

	if err = vfs.WriteFile(appCtx.FS, path, []byte(contents), 0o644); err != nil {
		return aerrors.NewWithCause("failed writing script", err, "path", path)
	}

	appCtx.Logger.Info("created script", "path", path, "number", num)
	_, err = fmt.Fprintln(appCtx.Stdout, path)

	return err //nolint:wrapcheck // This is fine.
}
