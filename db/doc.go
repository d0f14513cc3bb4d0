// Package db opens connections to the target databases scripts are applied
// to, and provides per-driver SQL dialect details.
package db
