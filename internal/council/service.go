package council

import (
	"errors"
	"fmt"
	"sync"

	"github.com/danmuck/councilctl/internal/observability"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNotFound reports that no configuration has been persisted yet.
	// Store implementations return it from Load on first run.
	ErrNotFound = errors.New("council: config not found")

	// ErrChairmanMissing reports a configuration whose chairman id does
	// not resolve to any entry. Under the persisted invariants this is
	// unreachable; hitting it means the source of truth is corrupt, so it
	// is fatal rather than silently substituted.
	ErrChairmanMissing = errors.New("council: chairman missing from configuration")
)

// Store is the persistence port the service reads and replaces through.
type Store interface {
	Load() (Config, error)
	Write(Config) error
}

// Service owns the source-of-truth side of the configuration: reads with
// first-run bootstrap, and full-replacement commits that are revalidated
// regardless of what the caller already checked.
type Service struct {
	mu    sync.Mutex
	store Store
}

// NewService builds a service over the given store.
func NewService(st Store) *Service {
	return &Service{store: st}
}

// Read returns the persisted configuration. On first run it synthesizes
// the default council, persists it, and returns it; the bootstrap runs at
// most once even under concurrent first calls.
func (s *Service) Read() (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.store.Load()
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Config{}, err
	}

	cfg = DefaultConfig()
	if err := s.store.Write(cfg); err != nil {
		return Config{}, fmt.Errorf("council: bootstrap defaults: %w", err)
	}
	log.Info().Int("clis", len(cfg.Clis)).Str("chairman", cfg.ChairmanID).Msg("config_bootstrapped")
	return cfg, nil
}

// Replace validates the candidate and atomically replaces the persisted
// configuration. Client-side validation is never trusted; an invalid
// candidate writes nothing and returns a *ValidationError carrying every
// violation. Store failures are surfaced verbatim.
func (s *Service) Replace(candidate Config) error {
	if violations := Validate(candidate); len(violations) > 0 {
		observability.RecordConfigReplace("rejected")
		return &ValidationError{Violations: violations}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Write(candidate); err != nil {
		observability.RecordConfigReplace("io_error")
		return err
	}
	observability.RecordConfigReplace("applied")
	log.Info().
		Int("clis", len(candidate.Clis)).
		Str("chairman", candidate.ChairmanID).
		Msg("config_replaced")
	return nil
}

// ActiveClis returns the enabled entries in council seating order. Ids
// present in CouncilIDs but absent from Clis are dropped; under the
// persisted invariants that cannot happen, but a defensive read must not
// crash on it.
func (s *Service) ActiveClis(cfg Config) []CliEntry {
	active := make([]CliEntry, 0, len(cfg.CouncilIDs))
	for _, id := range cfg.CouncilIDs {
		cli, ok := cfg.EntryByID(id)
		if !ok || !cli.Enabled {
			continue
		}
		active = append(active, cli.Clone())
	}
	return active
}

// Chairman returns the entry holding the chair. Absence is an invariant
// breach and comes back as ErrChairmanMissing.
func (s *Service) Chairman(cfg Config) (CliEntry, error) {
	cli, ok := cfg.EntryByID(cfg.ChairmanID)
	if !ok {
		return CliEntry{}, fmt.Errorf("%w: id %q", ErrChairmanMissing, cfg.ChairmanID)
	}
	return cli.Clone(), nil
}

// CliByID returns one entry by id.
func (s *Service) CliByID(cfg Config, id string) (CliEntry, bool) {
	cli, ok := cfg.EntryByID(normalizeID(id))
	if !ok {
		return CliEntry{}, false
	}
	return cli.Clone(), true
}
