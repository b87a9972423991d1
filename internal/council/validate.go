package council

import (
	"fmt"
	"strings"
)

// ViolationReason classifies one way a configuration can break the
// council invariants.
type ViolationReason string

const (
	EmptyCliList         ViolationReason = "empty_cli_list"
	NoEnabledClis        ViolationReason = "no_enabled_clis"
	ChairmanNotFound     ViolationReason = "chairman_not_found"
	ChairmanDisabled     ViolationReason = "chairman_disabled"
	DuplicateID          ViolationReason = "duplicate_id"
	MissingRequiredField ViolationReason = "missing_required_field"
	UnknownCouncilID     ViolationReason = "unknown_council_id"
)

// Violation is one user-correctable invariant breach, addressed to the
// offending entry and field so an edit surface can highlight it.
type Violation struct {
	Reason  ViolationReason `json:"reason"`
	EntryID string          `json:"entry_id,omitempty"`
	Field   string          `json:"field,omitempty"`
	Message string          `json:"message"`
}

func (v Violation) String() string {
	return v.Message
}

// ValidationError carries the full violation list across an error
// boundary without collapsing it to a single message.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return "council: invalid configuration: " + strings.Join(msgs, "; ")
}

// Validate checks a candidate configuration against every council
// invariant. Checks are independent and all violations are reported so a
// caller can surface every problem at once. A nil result means valid.
func Validate(cfg Config) []Violation {
	var out []Violation

	if len(cfg.Clis) == 0 {
		out = append(out, Violation{
			Reason:  EmptyCliList,
			Message: "at least one CLI is required",
		})
	}

	if len(cfg.Clis) > 0 && cfg.EnabledCount() == 0 {
		out = append(out, Violation{
			Reason:  NoEnabledClis,
			Message: "at least one CLI must be enabled",
		})
	}

	chairman, chairmanFound := cfg.EntryByID(cfg.ChairmanID)
	if !chairmanFound {
		out = append(out, Violation{
			Reason:  ChairmanNotFound,
			EntryID: cfg.ChairmanID,
			Field:   "chairman_id",
			Message: fmt.Sprintf("chairman %q not found in CLIs", cfg.ChairmanID),
		})
	} else if !chairman.Enabled {
		out = append(out, Violation{
			Reason:  ChairmanDisabled,
			EntryID: chairman.ID,
			Field:   "enabled",
			Message: fmt.Sprintf("chairman %q must be enabled", chairman.ID),
		})
	}

	seen := make(map[string]bool, len(cfg.Clis))
	for _, cli := range cfg.Clis {
		if seen[cli.ID] {
			out = append(out, Violation{
				Reason:  DuplicateID,
				EntryID: cli.ID,
				Field:   "id",
				Message: fmt.Sprintf("duplicate CLI id %q", cli.ID),
			})
			continue
		}
		seen[cli.ID] = true
	}

	for _, cli := range cfg.Clis {
		if strings.TrimSpace(cli.Name) == "" {
			out = append(out, Violation{
				Reason:  MissingRequiredField,
				EntryID: cli.ID,
				Field:   "name",
				Message: fmt.Sprintf("CLI %q is missing a name", cli.ID),
			})
		}
		if strings.TrimSpace(cli.Command) == "" {
			out = append(out, Violation{
				Reason:  MissingRequiredField,
				EntryID: cli.ID,
				Field:   "command",
				Message: fmt.Sprintf("CLI %q is missing a command", cli.ID),
			})
		}
	}

	for _, id := range cfg.CouncilIDs {
		if _, ok := cfg.EntryByID(id); !ok {
			out = append(out, Violation{
				Reason:  UnknownCouncilID,
				EntryID: id,
				Field:   "council_ids",
				Message: fmt.Sprintf("council id %q does not match any CLI", id),
			})
		}
	}

	return out
}
