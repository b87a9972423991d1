package council

import "strings"

// CliEntry describes one command-line tool that can sit on the council.
// ID is assigned at creation and never changes; Args are prepended before
// the prompt when the tool is invoked.
type CliEntry struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
	Enabled bool     `json:"enabled"`
}

// Config is the whole persisted council configuration. Clis order is
// display order; CouncilIDs order is council seating order and is
// maintained independently so the operator can reorder the council
// without reordering the list.
type Config struct {
	Clis       []CliEntry `json:"clis"`
	ChairmanID string     `json:"chairman_id"`
	CouncilIDs []string   `json:"council_ids"`
}

// Clone returns a deep copy of the configuration.
func (c Config) Clone() Config {
	out := Config{
		ChairmanID: c.ChairmanID,
		Clis:       make([]CliEntry, len(c.Clis)),
		CouncilIDs: make([]string, len(c.CouncilIDs)),
	}
	copy(out.CouncilIDs, c.CouncilIDs)
	for i, cli := range c.Clis {
		out.Clis[i] = cli.Clone()
	}
	return out
}

// Clone returns a copy of the entry with its own args slice.
func (e CliEntry) Clone() CliEntry {
	args := make([]string, len(e.Args))
	copy(args, e.Args)
	e.Args = args
	return e
}

// EntryByID returns the entry with the given id, if present.
func (c Config) EntryByID(id string) (CliEntry, bool) {
	for _, cli := range c.Clis {
		if cli.ID == id {
			return cli, true
		}
	}
	return CliEntry{}, false
}

// EnabledCount reports how many entries are currently enabled.
func (c Config) EnabledCount() int {
	n := 0
	for _, cli := range c.Clis {
		if cli.Enabled {
			n++
		}
	}
	return n
}

// DefaultConfig returns the first-run council: four conventional agent
// CLIs, all enabled, with gemini chairing.
func DefaultConfig() Config {
	return Config{
		Clis: []CliEntry{
			{ID: "gemini", Name: "Gemini", Command: "gemini", Args: []string{}, Enabled: true},
			{ID: "claude", Name: "Claude", Command: "claude", Args: []string{"-p"}, Enabled: true},
			{ID: "codex", Name: "Codex", Command: "codex", Args: []string{"exec"}, Enabled: true},
			{ID: "amp", Name: "Amp", Command: "amp", Args: []string{"-x"}, Enabled: true},
		},
		ChairmanID: "gemini",
		CouncilIDs: []string{"gemini", "claude", "codex", "amp"},
	}
}

func normalizeID(id string) string {
	return strings.TrimSpace(id)
}
