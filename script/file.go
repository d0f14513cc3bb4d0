package script

import (
	"fmt"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// File is a migration script found on the filesystem.
type File struct {
	// Path is the full path of the script file.
	Path string
	// Name is the base file name.
	Name string
	Key  OrderKey
}

// Content reads the script text.
func (f File) Content(fs vfs.FileSystem) (string, error) {
	data, err := vfs.ReadFile(fs, f.Path)
	if err != nil {
		return "", fmt.Errorf("failed reading script file: %w", err)
	}

	return string(data), nil
}
