package cli

import (
	"reflect"

	"github.com/alecthomas/kong"

	"go.hackfix.me/scriptomate/db"
	"go.hackfix.me/scriptomate/sequence"
)

// DriverMapper parses a database driver name, accepting common aliases.
type DriverMapper struct{}

var _ kong.Mapper = (*DriverMapper)(nil)

// Decode implements the kong.Mapper interface.
func (DriverMapper) Decode(kctx *kong.DecodeContext, target reflect.Value) error {
	var value string
	err := kctx.Scan.PopValueInto("driver", &value)
	if err != nil {
		return err
	}

	driver, err := db.DriverFromString(value)
	if err != nil {
		return err
	}

	target.Set(reflect.ValueOf(driver))

	return nil
}

// ModeMapper parses a sequence allocation mode.
type ModeMapper struct{}

var _ kong.Mapper = (*ModeMapper)(nil)

// Decode implements the kong.Mapper interface.
func (ModeMapper) Decode(kctx *kong.DecodeContext, target reflect.Value) error {
	var value string
	err := kctx.Scan.PopValueInto("mode", &value)
	if err != nil {
		return err
	}

	mode, err := sequence.ParseMode(value)
	if err != nil {
		return err
	}

	target.Set(reflect.ValueOf(mode))

	return nil
}
