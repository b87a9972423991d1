// Package council owns the configuration core of the CLI council.
//
// Ownership boundary:
// - the configuration data model and its invariants
// - the edit-session state machine over a working copy
// - read/replace against the persisted source of truth
//
// Council does not run subprocesses and does not touch the filesystem
// directly; probing lives in internal/probe and persistence behind the
// Store port.
package council
