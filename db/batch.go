package db

import (
	"regexp"
	"strings"
)

// goSeparatorRx matches a batch separator line as understood by SQL Server
// tools: "GO" on its own line, optionally followed by a comment.
var goSeparatorRx = regexp.MustCompile(`(?i)^\s*GO\s*(--.*)?$`)

// Batches splits a script into the statements batches that must be executed
// separately. Only SQL Server scripts use GO separators; for other drivers the
// whole script is a single batch. Empty batches are dropped.
func (d Driver) Batches(script string) []string {
	if d != DriverSQLServer {
		if strings.TrimSpace(script) == "" {
			return nil
		}
		return []string{script}
	}

	var (
		batches []string
		cur     strings.Builder
	)
	flush := func() {
		if b := strings.TrimSpace(cur.String()); b != "" {
			batches = append(batches, b)
		}
		cur.Reset()
	}

	for _, line := range strings.Split(strings.ReplaceAll(script, "\r\n", "\n"), "\n") {
		if goSeparatorRx.MatchString(line) {
			flush()
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
	}
	flush()

	return batches
}
