package cli

import (
	"fmt"

	actx "go.hackfix.me/scriptomate/app/context"
)

// maxNameLen is the length after which script names are truncated in listings.
const maxNameLen = 75

// Status lists the scripts in a directory that haven't been applied to the
// target database yet.
type Status struct {
	Dir    string `arg:"" help:"Directory containing the database scripts."`
	Target `embed:""`
}

// Run the status command.
func (c *Status) Run(appCtx *actx.Context) error {
	exec, closeDB, err := newExecutor(appCtx, c.Dir, c.Target, 0)
	if err != nil {
		return err
	}
	defer closeDB()

	pending, err := exec.Pending(appCtx.Ctx, c.Dir)
	if err != nil {
		return err //nolint:wrapcheck // Typed errors.
	}

	if len(pending) == 0 {
		_, err = fmt.Fprintln(appCtx.Stdout, "No scripts pending.")
		return err //nolint:wrapcheck // This is fine.
	}

	data := make([][]string, 0, len(pending))
	for _, f := range pending {
		data = append(data, []string{f.Key.String(), truncateName(f.Name)})
	}

	if err = renderTable([]string{"Number", "Script"}, data, appCtx.Stdout); err != nil {
		return fmt.Errorf("failed rendering table: %w", err)
	}

	return nil
}

func truncateName(name string) string {
	if len(name) <= maxNameLen {
		return name
	}
	return name[:maxNameLen] + "..."
}
