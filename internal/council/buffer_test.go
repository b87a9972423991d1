package council

import (
	"errors"
	"testing"
)

// recordingReplacer captures Replace calls and can be primed to fail.
type recordingReplacer struct {
	replaced []Config
	err      error
}

func (r *recordingReplacer) Replace(cfg Config) error {
	if r.err != nil {
		return r.err
	}
	r.replaced = append(r.replaced, cfg)
	return nil
}

func newTestBuffer(t *testing.T, cfg Config) (*EditBuffer, *recordingReplacer) {
	t.Helper()
	rep := &recordingReplacer{}
	return NewEditBuffer(cfg, rep), rep
}

func wantRejection(t *testing.T, err error, reason RejectionReason) {
	t.Helper()
	var rej *Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("expected rejection %s, got %v", reason, err)
	}
	if rej.Reason != reason {
		t.Fatalf("expected rejection %s, got %s (%s)", reason, rej.Reason, rej.Message)
	}
}

func TestBufferStartsClean(t *testing.T) {
	buf, _ := newTestBuffer(t, validConfig())
	if buf.State() != StateClean || buf.Dirty() {
		t.Fatalf("new buffer must be clean, got %s", buf.State())
	}
}

func TestBufferUpdatesMarkDirtyAndSkipValidation(t *testing.T) {
	buf, _ := newTestBuffer(t, validConfig())

	// Emptying the command is a transient state the buffer must allow.
	if err := buf.SetCommand("c", ""); err != nil {
		t.Fatalf("set command: %v", err)
	}
	if err := buf.SetName("c", ""); err != nil {
		t.Fatalf("set name: %v", err)
	}
	if err := buf.SetArgs("c", []string{"--fast"}); err != nil {
		t.Fatalf("set args: %v", err)
	}
	if !buf.Dirty() {
		t.Fatalf("updates must mark the buffer dirty")
	}

	snap := buf.Snapshot()
	entry, ok := snap.EntryByID("c")
	if !ok || entry.Command != "" || entry.Name != "" || len(entry.Args) != 1 {
		t.Fatalf("unexpected entry after updates: %+v", entry)
	}

	wantRejection(t, buf.SetName("ghost", "X"), UnknownID)
}

func TestBufferSnapshotIsDeepCopy(t *testing.T) {
	buf, _ := newTestBuffer(t, validConfig())
	snap := buf.Snapshot()
	snap.Clis[0].Name = "Mutated"
	snap.Clis[1].Args[0] = "--mutated"
	snap.CouncilIDs[0] = "mutated"

	fresh := buf.Snapshot()
	if fresh.Clis[0].Name != "Gemini" || fresh.Clis[1].Args[0] != "-p" || fresh.CouncilIDs[0] != "g" {
		t.Fatalf("snapshot aliases buffer state: %+v", fresh)
	}
}

func TestToggleEnabledRejections(t *testing.T) {
	buf, _ := newTestBuffer(t, validConfig())

	wantRejection(t, buf.ToggleEnabled("g"), CannotDisableChairman)
	if buf.Dirty() {
		t.Fatalf("rejected toggle must not mutate")
	}

	if err := buf.ToggleEnabled("c"); err != nil {
		t.Fatalf("disable non-chairman: %v", err)
	}

	// g is now the sole enabled entry and also chairman; the chairman
	// check fires first but either way it must refuse.
	wantRejection(t, buf.ToggleEnabled("g"), CannotDisableChairman)

	if err := buf.ToggleEnabled("c"); err != nil {
		t.Fatalf("re-enable: %v", err)
	}
	entry, _ := buf.Snapshot().EntryByID("c")
	if !entry.Enabled {
		t.Fatalf("toggle must flip enabled back on")
	}

	wantRejection(t, buf.ToggleEnabled("ghost"), UnknownID)
}

func TestToggleCannotDisableLastEnabled(t *testing.T) {
	// In an invariant-clean config the sole enabled entry is always the
	// chairman, so the last-enabled guard needs a buffer mid-edit where
	// the chair points at a since-vanished id. The guard must still hold.
	cfg := validConfig()
	cfg.Clis[0].Enabled = false
	cfg.ChairmanID = "gone"
	buf, _ := newTestBuffer(t, cfg)

	wantRejection(t, buf.ToggleEnabled("c"), CannotDisableLastEnabled)
	entry, _ := buf.Snapshot().EntryByID("c")
	if !entry.Enabled {
		t.Fatalf("rejected toggle must not mutate")
	}

	if err := buf.ToggleEnabled("g"); err != nil {
		t.Fatalf("enable g: %v", err)
	}
	if err := buf.ToggleEnabled("c"); err != nil {
		t.Fatalf("with two enabled entries disabling one is fine: %v", err)
	}
}

func TestDeleteRejections(t *testing.T) {
	buf, _ := newTestBuffer(t, validConfig())

	wantRejection(t, buf.Delete("g"), CannotDeleteChairman)
	wantRejection(t, buf.Delete("ghost"), UnknownID)

	if err := buf.Delete("c"); err != nil {
		t.Fatalf("delete c: %v", err)
	}
	snap := buf.Snapshot()
	if len(snap.Clis) != 1 || len(snap.CouncilIDs) != 1 {
		t.Fatalf("delete must remove from clis and council ids: %+v", snap)
	}

	wantRejection(t, buf.Delete("g"), CannotDeleteChairman)
}

func TestDeleteOnlyEntryRejected(t *testing.T) {
	cfg := Config{
		Clis:       []CliEntry{{ID: "solo", Name: "Solo", Command: "solo", Args: []string{}, Enabled: true}},
		ChairmanID: "other", // not the chairman, so the only-entry guard decides
		CouncilIDs: []string{"solo"},
	}
	buf, _ := newTestBuffer(t, cfg)
	wantRejection(t, buf.Delete("solo"), CannotDeleteOnlyEntry)
}

func TestDeleteClearsExpansionAndResult(t *testing.T) {
	buf, _ := newTestBuffer(t, validConfig())
	if err := buf.SetExpanded("c"); err != nil {
		t.Fatalf("expand: %v", err)
	}
	if !buf.AttachResult(TestResult{EntryID: "c", Success: true, Output: "OK"}) {
		t.Fatalf("attach result")
	}

	if err := buf.Delete("c"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if buf.ExpandedID() != "" {
		t.Fatalf("deleting the expanded entry must clear expansion")
	}
	if _, ok := buf.Result("c"); ok {
		t.Fatalf("deleting an entry must drop its probe result")
	}
}

func TestAddAppendsDefaultsAndExpands(t *testing.T) {
	buf, _ := newTestBuffer(t, validConfig())
	entry := buf.Add()

	if entry.Name != "New CLI" || entry.Command != "" || !entry.Enabled || len(entry.Args) != 0 {
		t.Fatalf("unexpected defaults: %+v", entry)
	}
	if buf.ExpandedID() != entry.ID {
		t.Fatalf("add must expand the new entry")
	}
	if !buf.Dirty() {
		t.Fatalf("add must mark dirty")
	}

	snap := buf.Snapshot()
	if snap.CouncilIDs[len(snap.CouncilIDs)-1] != entry.ID {
		t.Fatalf("add must seat the new entry at the council tail: %+v", snap.CouncilIDs)
	}
}

func TestAddGeneratesDistinctIDs(t *testing.T) {
	buf, _ := newTestBuffer(t, validConfig())
	seen := map[string]bool{"g": true, "c": true}
	for i := 0; i < 50; i++ {
		entry := buf.Add()
		if seen[entry.ID] {
			t.Fatalf("id %q reused on add %d", entry.ID, i)
		}
		seen[entry.ID] = true
		if len(entry.ID) != 8 {
			t.Fatalf("expected 8-char id, got %q", entry.ID)
		}
	}
}

func TestSetChairmanRejections(t *testing.T) {
	buf, _ := newTestBuffer(t, validConfig())

	wantRejection(t, buf.SetChairman("ghost"), UnknownID)

	if err := buf.ToggleEnabled("c"); err != nil {
		t.Fatalf("disable c: %v", err)
	}
	wantRejection(t, buf.SetChairman("c"), ChairmanMustBeEnabled)

	if err := buf.ToggleEnabled("c"); err != nil {
		t.Fatalf("enable c: %v", err)
	}
	if err := buf.SetChairman("c"); err != nil {
		t.Fatalf("set chairman: %v", err)
	}
	if buf.Snapshot().ChairmanID != "c" {
		t.Fatalf("chairman not updated")
	}
}

// The spec's end-to-end scenario: a protected sole chairman becomes
// deletable once a fresh entry takes the chair.
func TestChairmanHandoverScenario(t *testing.T) {
	cfg := Config{
		Clis:       []CliEntry{{ID: "g", Name: "Gemini", Command: "gemini", Args: []string{}, Enabled: true}},
		ChairmanID: "g",
		CouncilIDs: []string{"g"},
	}
	buf, _ := newTestBuffer(t, cfg)

	wantRejection(t, buf.Delete("g"), CannotDeleteChairman)

	fresh := buf.Add()
	if err := buf.SetChairman(fresh.ID); err != nil {
		t.Fatalf("new entry is enabled by default, chairman handover must succeed: %v", err)
	}
	if err := buf.Delete("g"); err != nil {
		t.Fatalf("delete after handover: %v", err)
	}

	snap := buf.Snapshot()
	if len(snap.Clis) != 1 || snap.Clis[0].ID != fresh.ID || snap.ChairmanID != fresh.ID {
		t.Fatalf("unexpected final state: %+v", snap)
	}
}

func TestCommitRejectsInvalidAndStaysDirty(t *testing.T) {
	buf, rep := newTestBuffer(t, validConfig())
	if err := buf.SetCommand("c", ""); err != nil {
		t.Fatalf("set command: %v", err)
	}

	err := buf.Commit()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !hasViolation(verr.Violations, MissingRequiredField) {
		t.Fatalf("expected missing field violation, got %+v", verr.Violations)
	}
	if len(rep.replaced) != 0 {
		t.Fatalf("failed commit must not reach the replacer")
	}
	if !buf.Dirty() {
		t.Fatalf("failed commit must leave the buffer dirty")
	}
}

func TestCommitSurfacesStoreErrorAndStaysDirty(t *testing.T) {
	buf, rep := newTestBuffer(t, validConfig())
	rep.err = errors.New("disk full")
	if err := buf.SetName("c", "Claude 2"); err != nil {
		t.Fatalf("set name: %v", err)
	}

	err := buf.Commit()
	if err == nil || err.Error() != "disk full" {
		t.Fatalf("store error must surface verbatim, got %v", err)
	}
	if !buf.Dirty() {
		t.Fatalf("failed commit must leave the buffer dirty")
	}

	rep.err = nil
	if err := buf.Commit(); err != nil {
		t.Fatalf("retry commit: %v", err)
	}
	if buf.Dirty() {
		t.Fatalf("successful commit must return to clean")
	}
	if len(rep.replaced) != 1 || rep.replaced[0].Clis[1].Name != "Claude 2" {
		t.Fatalf("edits lost across failed commit: %+v", rep.replaced)
	}
}

func TestDiscardRestoresReferenceCopy(t *testing.T) {
	buf, _ := newTestBuffer(t, validConfig())
	entry := buf.Add()
	if err := buf.SetName("g", "Renamed"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	if !buf.AttachResult(TestResult{EntryID: "g", Success: true, Output: "OK"}) {
		t.Fatalf("attach result")
	}

	buf.Discard()
	if buf.Dirty() {
		t.Fatalf("discard must return to clean")
	}
	snap := buf.Snapshot()
	if len(snap.Clis) != 2 {
		t.Fatalf("discard must drop the added entry: %+v", snap.Clis)
	}
	if name, _ := snap.EntryByID("g"); name.Name != "Gemini" {
		t.Fatalf("discard must restore edited fields")
	}
	if _, ok := buf.Result("g"); ok {
		t.Fatalf("discard must clear probe results")
	}
	if buf.ExpandedID() == entry.ID {
		t.Fatalf("expansion must not point at a discarded entry")
	}
}

func TestDiscardAfterCommitKeepsCommittedState(t *testing.T) {
	buf, _ := newTestBuffer(t, validConfig())
	if err := buf.SetChairman("c"); err != nil {
		t.Fatalf("set chairman: %v", err)
	}
	if err := buf.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if err := buf.SetName("g", "Scratch"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	buf.Discard()
	if buf.Snapshot().ChairmanID != "c" {
		t.Fatalf("discard must restore the committed reference, not the original")
	}
}

func TestAttachResultStaleGuard(t *testing.T) {
	buf, _ := newTestBuffer(t, validConfig())
	if err := buf.Delete("c"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if buf.AttachResult(TestResult{EntryID: "c", Success: true, Output: "OK"}) {
		t.Fatalf("result for a deleted entry must be dropped")
	}
	if !buf.AttachResult(TestResult{EntryID: "g", Success: false, Detail: "timeout"}) {
		t.Fatalf("result for a live entry must attach")
	}
	res, ok := buf.Result("g")
	if !ok || res.Success || res.Detail != "timeout" {
		t.Fatalf("unexpected stored result: %+v", res)
	}
	if res.When.IsZero() {
		t.Fatalf("attach must stamp the result time")
	}
	if buf.Dirty() {
		t.Fatalf("probe results are display state and must not dirty the buffer")
	}
}
