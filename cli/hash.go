package cli

import (
	"bufio"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	actx "go.hackfix.me/scriptomate/app/context"
	aerrors "go.hackfix.me/scriptomate/app/errors"
)

// HashPassword prints the bcrypt hash of a server password, suitable for the
// server.password setting.
type HashPassword struct {
	Password string `arg:"" optional:"" help:"Password to hash. It's read from stdin if omitted."`
}

// Run the hash-password command.
func (c *HashPassword) Run(appCtx *actx.Context) error {
	password := c.Password
	if password == "" {
		sc := bufio.NewScanner(appCtx.Stdin)
		if sc.Scan() {
			password = strings.TrimRight(sc.Text(), "\r")
		}
		if err := sc.Err(); err != nil {
			return aerrors.NewWithCause("failed reading password from stdin", err)
		}
	}
	if password == "" {
		return aerrors.NewWith("a password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return aerrors.NewWithCause("failed hashing password", err)
	}

	_, err = fmt.Fprintln(appCtx.Stdout, string(hash))
	return err //nolint:wrapcheck // This is fine.
}
