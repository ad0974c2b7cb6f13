// Package speaker turns platform speaker IDs into display labels.
//
// Resolve never fails: when no resolver answers in time the label is
// FallbackLabel(id), "User_<id>".
package speaker
