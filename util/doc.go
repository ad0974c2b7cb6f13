// Package util holds small helpers shared across minutes packages: string
// sanitizing for file names and logs, size parsing and secret masking.
package util
