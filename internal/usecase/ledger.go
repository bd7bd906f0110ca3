package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grocerybutler/backend/internal/domain"
	"github.com/grocerybutler/backend/pkg/logger"
)

// LedgerConfig holds optional collaborators for the inventory ledger
type LedgerConfig struct {
	Clock    func() time.Time
	Logger   *zap.Logger
	Recorder Recorder
}

// InventoryLedger owns household inventory status. Every status change goes through
// SetStatus or Restock, and at most one transition per key runs at a time.
type InventoryLedger struct {
	repo     domain.InventoryRepository
	matcher  *MatchPipeline
	now      func() time.Time
	locks    keyedMutex
	logger   *zap.Logger
	recorder Recorder
}

// NewInventoryLedger creates a ledger over repo. matcher resolves restock names to keys.
func NewInventoryLedger(repo domain.InventoryRepository, matcher *MatchPipeline, config LedgerConfig) *InventoryLedger {
	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}
	return &InventoryLedger{
		repo:     repo,
		matcher:  matcher,
		now:      func() time.Time { return clock().UTC() },
		logger:   logger.OrNop(config.Logger).Named("ledger"),
		recorder: recorderOrNop(config.Recorder),
	}
}

// Transition describes the result of a SetStatus call
type Transition struct {
	Entry   domain.InventoryEntry  `json:"entry"`
	From    domain.InventoryStatus `json:"from"`
	Changed bool                   `json:"changed"`
}

// SetStatus moves name to status. Writing the current status is a no-op that leaves
// last_status_change untouched; an untracked item counts as on_hand, so setting it
// on_hand creates nothing.
func (l *InventoryLedger) SetStatus(ctx context.Context, name string, status domain.InventoryStatus) (Transition, error) {
	key := Normalize(name)
	if key == "" {
		return Transition{}, fmt.Errorf("%w: empty ingredient name", domain.ErrInvalidRequest)
	}
	if !status.Valid() {
		return Transition{}, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	unlock := l.locks.Lock(key)
	defer unlock()

	return l.transition(ctx, key, name, status)
}

// transition must be called with the key lock held
func (l *InventoryLedger) transition(ctx context.Context, key, displayName string, status domain.InventoryStatus) (Transition, error) {
	current, err := l.repo.Get(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrInventoryItemNotFound) {
		return Transition{}, fmt.Errorf("load inventory %q: %w", key, err)
	}

	if current == nil {
		if status == domain.StatusOnHand {
			return Transition{Entry: domain.InventoryEntry{Key: key, Status: domain.StatusOnHand}, From: domain.StatusOnHand}, nil
		}
		current = &domain.InventoryEntry{
			ID:          newID(),
			Key:         key,
			DisplayName: displayName,
			Status:      domain.StatusOnHand,
		}
	}

	from := current.Status
	if from == status {
		return Transition{Entry: *current, From: from}, nil
	}

	current.Status = status
	current.LastStatusChange = l.now()
	if err := l.repo.Upsert(ctx, current); err != nil {
		return Transition{}, fmt.Errorf("save inventory %q: %w", key, err)
	}

	l.recorder.StatusTransition(status)
	l.logger.Info("status changed",
		zap.String("ingredient", key),
		zap.String("from", string(from)),
		zap.String("to", string(status)))

	return Transition{Entry: *current, From: from, Changed: true}, nil
}

// RestockMatch pairs a restock query with the ledger key it resolved to
type RestockMatch struct {
	Query      string  `json:"query"`
	Key        string  `json:"ingredient"`
	Confidence float64 `json:"confidence"`
	Strategy   string  `json:"strategy"`
	Changed    bool    `json:"changed"`
}

// AmbiguousRestock is a restock query that matched several keys too closely to pick one
type AmbiguousRestock struct {
	Query      string   `json:"query"`
	Contenders []string `json:"contenders"`
}

// RestockReport is the outcome of a bulk restock
type RestockReport struct {
	Restocked []RestockMatch     `json:"restocked"`
	Unmatched []string           `json:"unmatched"`
	Ambiguous []AmbiguousRestock `json:"ambiguous"`
}

// Restock marks each named item on_hand. Names are resolved against tracked keys through
// the matcher; names that resolve to nothing or to several keys are reported, not applied.
func (l *InventoryLedger) Restock(ctx context.Context, names []string) (*RestockReport, error) {
	entries, err := l.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}

	report := &RestockReport{
		Restocked: []RestockMatch{},
		Unmatched: []string{},
		Ambiguous: []AmbiguousRestock{},
	}

	for _, name := range names {
		result, ok := l.matcher.Resolve(name, keys)
		switch {
		case ok:
			unlock := l.locks.Lock(result.Key)
			t, err := l.transition(ctx, result.Key, name, domain.StatusOnHand)
			unlock()
			if err != nil {
				return report, err
			}
			report.Restocked = append(report.Restocked, RestockMatch{
				Query:      name,
				Key:        result.Key,
				Confidence: result.Confidence,
				Strategy:   result.Strategy,
				Changed:    t.Changed,
			})
			l.recorder.RestockOutcome(RestockMatched)
		case result.Ambiguous:
			report.Ambiguous = append(report.Ambiguous, AmbiguousRestock{Query: name, Contenders: result.Contenders})
			l.recorder.RestockOutcome(RestockAmbiguous)
		default:
			report.Unmatched = append(report.Unmatched, name)
			l.recorder.RestockOutcome(RestockUnmatched)
		}
	}

	l.logger.Debug("restock applied",
		zap.Int("restocked", len(report.Restocked)),
		zap.Int("unmatched", len(report.Unmatched)),
		zap.Int("ambiguous", len(report.Ambiguous)))

	return report, nil
}

// RestockQueue returns low and out entries, oldest last_status_change first
func (l *InventoryLedger) RestockQueue(ctx context.Context) ([]domain.InventoryEntry, error) {
	entries, err := l.repo.ListByStatus(ctx, domain.StatusLow, domain.StatusOut)
	if err != nil {
		return nil, fmt.Errorf("list restock queue: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.LastStatusChange.Equal(b.LastStatusChange) {
			return a.LastStatusChange.Before(b.LastStatusChange)
		}
		return a.Key < b.Key
	})
	return entries, nil
}

// ClearRestockQueue sets every queued entry back to on_hand and returns the cleared keys
func (l *InventoryLedger) ClearRestockQueue(ctx context.Context) ([]string, error) {
	queue, err := l.RestockQueue(ctx)
	if err != nil {
		return nil, err
	}
	cleared := make([]string, 0, len(queue))
	for _, e := range queue {
		t, err := l.SetStatus(ctx, e.Key, domain.StatusOnHand)
		if err != nil {
			return cleared, err
		}
		if t.Changed {
			cleared = append(cleared, e.Key)
		}
	}
	return cleared, nil
}

// RestockAdditions turns the restock queue into shopping list additions.
// Entries without defaults are requested as 1 each in category other.
func (l *InventoryLedger) RestockAdditions(ctx context.Context) ([]domain.Ingredient, error) {
	queue, err := l.RestockQueue(ctx)
	if err != nil {
		return nil, err
	}
	additions := make([]domain.Ingredient, 0, len(queue))
	for _, e := range queue {
		item := domain.Ingredient{
			Name:     e.DisplayName,
			Quantity: e.DefaultQuantity,
			Unit:     e.DefaultUnit,
			Category: e.Category,
			Notes:    "status: " + string(e.Status),
		}
		if item.Name == "" {
			item.Name = e.Key
		}
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		if item.Unit == "" {
			item.Unit = "each"
		}
		if !item.Category.Valid() {
			item.Category = domain.CategoryOther
		}
		additions = append(additions, item)
	}
	return additions, nil
}

// Track registers name with its shopping defaults. Existing entries keep their status;
// new entries start at entry.Status, or on_hand when unset.
func (l *InventoryLedger) Track(ctx context.Context, entry domain.InventoryEntry) (*domain.InventoryEntry, error) {
	name := entry.DisplayName
	if name == "" {
		name = entry.Key
	}
	key := Normalize(name)
	if key == "" {
		return nil, fmt.Errorf("%w: empty ingredient name", domain.ErrInvalidRequest)
	}
	if entry.Status != "" && !entry.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, entry.Status)
	}
	if entry.Category != "" && !entry.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidRequest, entry.Category)
	}

	unlock := l.locks.Lock(key)
	defer unlock()

	current, err := l.repo.Get(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrInventoryItemNotFound) {
		return nil, fmt.Errorf("load inventory %q: %w", key, err)
	}

	if current == nil {
		status := entry.Status
		if status == "" {
			status = domain.StatusOnHand
		}
		current = &domain.InventoryEntry{
			ID:               newID(),
			Key:              key,
			Status:           status,
			LastStatusChange: l.now(),
		}
	}

	current.DisplayName = name
	if entry.Category != "" {
		current.Category = entry.Category
	}
	if entry.DefaultQuantity > 0 {
		current.DefaultQuantity = entry.DefaultQuantity
	}
	if entry.DefaultUnit != "" {
		current.DefaultUnit = string(domain.ParseUnit(entry.DefaultUnit))
	}
	if entry.SearchTerm != "" {
		current.SearchTerm = entry.SearchTerm
	}
	if entry.Notes != "" {
		current.Notes = entry.Notes
	}

	if err := l.repo.Upsert(ctx, current); err != nil {
		return nil, fmt.Errorf("save inventory %q: %w", key, err)
	}
	return current, nil
}

// Untrack removes name from the ledger, after which it counts as on_hand again
func (l *InventoryLedger) Untrack(ctx context.Context, name string) error {
	key := Normalize(name)
	unlock := l.locks.Lock(key)
	defer unlock()
	return l.repo.Delete(ctx, key)
}

// Get returns the entry for name
func (l *InventoryLedger) Get(ctx context.Context, name string) (*domain.InventoryEntry, error) {
	return l.repo.Get(ctx, Normalize(name))
}

// List returns every tracked entry ordered by key
func (l *InventoryLedger) List(ctx context.Context) ([]domain.InventoryEntry, error) {
	entries, err := l.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Snapshot copies the ledger for one consolidation run
func (l *InventoryLedger) Snapshot(ctx context.Context) (*domain.InventorySnapshot, error) {
	entries, err := l.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot inventory: %w", err)
	}
	return domain.NewInventorySnapshot(l.now(), entries), nil
}

// newID returns a time-ordered UUID, falling back to a random one
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
