package council

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BufferState describes the edit buffer relative to its reference copy.
type BufferState string

const (
	StateClean BufferState = "clean"
	StateDirty BufferState = "dirty"
)

// RejectionReason classifies why a buffer transition was refused.
type RejectionReason string

const (
	CannotDisableChairman    RejectionReason = "cannot_disable_chairman"
	CannotDisableLastEnabled RejectionReason = "cannot_disable_last_enabled"
	CannotDeleteChairman     RejectionReason = "cannot_delete_chairman"
	CannotDeleteOnlyEntry    RejectionReason = "cannot_delete_only_entry"
	UnknownID                RejectionReason = "unknown_id"
	ChairmanMustBeEnabled    RejectionReason = "chairman_must_be_enabled"
)

// Rejection reports one refused transition. A rejected transition never
// mutates the buffer; the presentation layer decides how to surface it.
type Rejection struct {
	Reason  RejectionReason
	EntryID string
	Message string
}

func (r *Rejection) Error() string {
	return "council: " + r.Message
}

func reject(reason RejectionReason, id, msg string) *Rejection {
	return &Rejection{Reason: reason, EntryID: id, Message: msg}
}

// TestResult is the outcome of a probe run attached to one entry. It is
// buffer-local display state and is never validated or persisted.
type TestResult struct {
	EntryID string
	Success bool
	Output  string
	Detail  string
	When    time.Time
}

// Replacer commits a candidate configuration to the source of truth.
type Replacer interface {
	Replace(Config) error
}

// EditBuffer holds the working copy of the configuration during an
// editing session. Mutating verbs are transitions that either apply and
// mark the buffer dirty, or return a Rejection and change nothing.
// Validation of the whole configuration is deferred to Commit so the
// buffer can pass through transient invalid states while the operator
// types; the structural verbs (toggle, delete, chairman change) are
// checked immediately because they are discrete actions.
//
// The buffer is session-confined state: transitions are not safe for
// concurrent use and are expected to run on one goroutine.
type EditBuffer struct {
	replacer Replacer

	state      BufferState
	reference  Config
	working    Config
	results    map[string]TestResult
	expandedID string
}

// NewEditBuffer starts a clean editing session over cfg. The replacer is
// consulted only at Commit time.
func NewEditBuffer(cfg Config, replacer Replacer) *EditBuffer {
	return &EditBuffer{
		replacer:  replacer,
		state:     StateClean,
		reference: cfg.Clone(),
		working:   cfg.Clone(),
		results:   make(map[string]TestResult),
	}
}

// State reports whether the buffer has uncommitted edits.
func (b *EditBuffer) State() BufferState { return b.state }

// Dirty reports whether the buffer differs from its reference copy.
func (b *EditBuffer) Dirty() bool { return b.state == StateDirty }

// Snapshot returns a deep copy of the working configuration.
func (b *EditBuffer) Snapshot() Config { return b.working.Clone() }

// ExpandedID returns the id of the entry currently open for editing, or
// empty if none is.
func (b *EditBuffer) ExpandedID() string { return b.expandedID }

// SetExpanded opens one entry for editing. Expansion is display state and
// does not dirty the buffer.
func (b *EditBuffer) SetExpanded(id string) error {
	if id != "" {
		if _, ok := b.working.EntryByID(id); !ok {
			return reject(UnknownID, id, fmt.Sprintf("no CLI with id %q", id))
		}
	}
	b.expandedID = id
	return nil
}

// Result returns the last probe result attached to an entry.
func (b *EditBuffer) Result(id string) (TestResult, bool) {
	res, ok := b.results[id]
	return res, ok
}

// SetName updates an entry's display name. Emptiness is allowed here and
// caught at Commit.
func (b *EditBuffer) SetName(id, name string) error {
	return b.mutateEntry(id, func(e *CliEntry) { e.Name = name })
}

// SetCommand updates an entry's executable. Emptiness is allowed here and
// caught at Commit.
func (b *EditBuffer) SetCommand(id, command string) error {
	return b.mutateEntry(id, func(e *CliEntry) { e.Command = command })
}

// SetArgs replaces an entry's argument list.
func (b *EditBuffer) SetArgs(id string, args []string) error {
	copied := make([]string, len(args))
	copy(copied, args)
	return b.mutateEntry(id, func(e *CliEntry) { e.Args = copied })
}

func (b *EditBuffer) mutateEntry(id string, fn func(*CliEntry)) error {
	for i := range b.working.Clis {
		if b.working.Clis[i].ID == id {
			fn(&b.working.Clis[i])
			b.state = StateDirty
			return nil
		}
	}
	return reject(UnknownID, id, fmt.Sprintf("no CLI with id %q", id))
}

// ToggleEnabled flips one entry's enabled flag. Disabling the chairman or
// the last enabled entry is refused.
func (b *EditBuffer) ToggleEnabled(id string) error {
	entry, ok := b.working.EntryByID(id)
	if !ok {
		return reject(UnknownID, id, fmt.Sprintf("no CLI with id %q", id))
	}
	if entry.Enabled {
		if id == b.working.ChairmanID {
			return reject(CannotDisableChairman, id,
				"the chairman cannot be disabled; pick another chairman first")
		}
		if b.working.EnabledCount() == 1 {
			return reject(CannotDisableLastEnabled, id,
				"at least one CLI must stay enabled")
		}
	}
	return b.mutateEntry(id, func(e *CliEntry) { e.Enabled = !e.Enabled })
}

// Delete removes one entry from the list and the council. The chairman
// and the only remaining entry are protected.
func (b *EditBuffer) Delete(id string) error {
	if _, ok := b.working.EntryByID(id); !ok {
		return reject(UnknownID, id, fmt.Sprintf("no CLI with id %q", id))
	}
	if id == b.working.ChairmanID {
		return reject(CannotDeleteChairman, id,
			"the chairman cannot be deleted; pick another chairman first")
	}
	if len(b.working.Clis) == 1 {
		return reject(CannotDeleteOnlyEntry, id,
			"the last CLI cannot be deleted")
	}

	clis := b.working.Clis[:0]
	for _, cli := range b.working.Clis {
		if cli.ID != id {
			clis = append(clis, cli)
		}
	}
	b.working.Clis = clis

	ids := b.working.CouncilIDs[:0]
	for _, councilID := range b.working.CouncilIDs {
		if councilID != id {
			ids = append(ids, councilID)
		}
	}
	b.working.CouncilIDs = ids

	delete(b.results, id)
	if b.expandedID == id {
		b.expandedID = ""
	}
	b.state = StateDirty
	return nil
}

// Add appends a fresh entry with a generated id, seats it at the end of
// the council, and opens it for editing. Ids are never reused within a
// session.
func (b *EditBuffer) Add() CliEntry {
	entry := CliEntry{
		ID:      b.newID(),
		Name:    "New CLI",
		Command: "",
		Args:    []string{},
		Enabled: true,
	}
	b.working.Clis = append(b.working.Clis, entry)
	b.working.CouncilIDs = append(b.working.CouncilIDs, entry.ID)
	b.expandedID = entry.ID
	b.state = StateDirty
	return entry.Clone()
}

// SetChairman hands the chair to another entry, which must exist and be
// enabled.
func (b *EditBuffer) SetChairman(id string) error {
	entry, ok := b.working.EntryByID(id)
	if !ok {
		return reject(UnknownID, id, fmt.Sprintf("no CLI with id %q", id))
	}
	if !entry.Enabled {
		return reject(ChairmanMustBeEnabled, id,
			fmt.Sprintf("CLI %q must be enabled to chair the council", id))
	}
	b.working.ChairmanID = id
	b.state = StateDirty
	return nil
}

// Commit validates the working copy and hands it to the replacer. On a
// validation failure the full violation list is returned and the buffer
// stays dirty; on a replacer failure the error is surfaced verbatim and
// the buffer stays dirty, so no edits are lost either way.
func (b *EditBuffer) Commit() error {
	snapshot := b.working.Clone()
	if violations := Validate(snapshot); len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	if err := b.replacer.Replace(snapshot); err != nil {
		return err
	}
	b.reference = snapshot
	b.state = StateClean
	return nil
}

// Discard drops all uncommitted edits and probe results, restoring the
// reference copy. Confirmation before discarding is the caller's concern.
func (b *EditBuffer) Discard() {
	b.working = b.reference.Clone()
	b.results = make(map[string]TestResult)
	if b.expandedID != "" {
		if _, ok := b.working.EntryByID(b.expandedID); !ok {
			b.expandedID = ""
		}
	}
	b.state = StateClean
}

// AttachResult records a probe outcome against its entry. Results for
// entries that have since been removed are dropped, so an in-flight probe
// finishing late cannot resurrect display state for a deleted CLI.
func (b *EditBuffer) AttachResult(res TestResult) bool {
	if _, ok := b.working.EntryByID(res.EntryID); !ok {
		return false
	}
	if res.When.IsZero() {
		res.When = time.Now()
	}
	b.results[res.EntryID] = res
	return true
}

// newID returns a fresh 8-hex-char id unique within the configuration.
func (b *EditBuffer) newID() string {
	for {
		id := strings.SplitN(uuid.NewString(), "-", 2)[0]
		if _, exists := b.working.EntryByID(id); !exists {
			return id
		}
	}
}
