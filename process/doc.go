// Package process runs local subprocesses in their own process group.
//
// Run executes a command to completion and captures its output. Start
// launches a long-lived command, such as an encoder fed through stdin,
// and returns a Handle for streaming input and terminating it.
//
// Termination is always two-step: SIGTERM to the whole group, then
// SIGKILL once the grace period elapses.
package process
