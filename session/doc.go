// Package session runs one recording at a time.
//
// A Controller attaches to a voice source, starts a capture.Manager for the
// connection and routes every closed clip through a Dispatcher. The
// dispatcher transcribes the clip, resolves the speaker label and publishes
// the entry while tracking the job in a PendingSet.
//
// Stop drains in a fixed order: force-finalize every capture, wait for each
// to close, detach from the source, wait for the pending set to empty, then
// notify the observer that the minutes are complete. After Stop returns no
// capture is active and no job is pending.
package session
