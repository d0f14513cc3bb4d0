// Package types contains the database types shared by the packages that work
// with target databases, independently of the driver in use.
package types
