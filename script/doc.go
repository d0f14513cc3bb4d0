// Package script discovers versioned SQL migration scripts on a filesystem
// and orders them by the decimal number at the start of their file name.
package script
