// Package file provides the TOML settings file used by the command-line
// host. Keys are addressed in dot notation and stored as nested tables.
package file
