package cases

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/pkg/pagination"
	"github.com/JaimeStill/rounds/pkg/query"
)

type record struct {
	data      []byte
	version   int
	createdAt time.Time
	summary   Summary
}

type memory struct {
	mu         sync.RWMutex
	cases      map[uuid.UUID]*record
	logger     *slog.Logger
	pagination pagination.Config
}

// NewMemory creates an in-process case store. States are kept serialized
// so callers never share memory with the store.
func NewMemory(logger *slog.Logger, pagination pagination.Config) System {
	return &memory{
		cases:      make(map[uuid.UUID]*record),
		logger:     logger.With("system", "cases"),
		pagination: pagination,
	}
}

func (m *memory) Create(ctx context.Context, s *clinical.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cases[s.CaseID]; ok {
		return ErrDuplicate
	}

	s.Version = 1
	s.UpdatedAt = time.Now().UTC()

	rec, err := newRecord(s, s.UpdatedAt)
	if err != nil {
		return err
	}
	m.cases[s.CaseID] = rec

	m.logger.Info("case created", "case_id", s.CaseID)
	return nil
}

func (m *memory) Find(ctx context.Context, id uuid.UUID) (*clinical.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.cases[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.state()
}

func (m *memory) Commit(ctx context.Context, s *clinical.State, expected int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.commit(s, expected); err != nil {
		return err
	}

	m.logger.Info("case committed", "case_id", s.CaseID, "turn", s.Turn, "version", s.Version)
	return nil
}

func (m *memory) Update(ctx context.Context, id uuid.UUID, fn func(*clinical.State) error) (*clinical.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.cases[id]
	if !ok {
		return nil, ErrNotFound
	}

	s, err := rec.state()
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := m.commit(s, rec.version); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *memory) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Summary], error) {
	page.Normalize(m.pagination)

	m.mu.RLock()
	items := make([]Summary, 0, len(m.cases))
	for _, rec := range m.cases {
		if matches(rec.summary, page.Search, filters) {
			items = append(items, rec.summary)
		}
	}
	m.mu.RUnlock()

	order := page.Sort
	if len(order) == 0 {
		order = []query.SortField{defaultSort}
	}
	slices.SortFunc(items, func(a, b Summary) int {
		for _, f := range order {
			if c := compareField(a, b, f.Field); c != 0 {
				if f.Descending {
					return -c
				}
				return c
			}
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	total := len(items)
	start := min(page.Offset(), total)
	end := min(start+page.PageSize, total)

	result := pagination.NewPageResult(items[start:end], total, page.Page, page.PageSize)
	return &result, nil
}

func (m *memory) commit(s *clinical.State, expected int) error {
	rec, ok := m.cases[s.CaseID]
	if !ok {
		return ErrNotFound
	}
	if rec.version != expected {
		return fmt.Errorf("%w: %s at version %d", ErrConflict, s.CaseID, expected)
	}

	s.Version = expected + 1
	s.UpdatedAt = time.Now().UTC()

	next, err := newRecord(s, rec.createdAt)
	if err != nil {
		return err
	}
	m.cases[s.CaseID] = next
	return nil
}

func newRecord(s *clinical.State, createdAt time.Time) (*record, error) {
	data, err := encodeState(s)
	if err != nil {
		return nil, err
	}
	return &record{
		data:      data,
		version:   s.Version,
		createdAt: createdAt,
		summary:   summarize(s, createdAt),
	}, nil
}

func (r *record) state() (*clinical.State, error) {
	s, err := decodeState(r.data)
	if err != nil {
		return nil, err
	}
	s.Version = r.version
	return s, nil
}

func matches(s Summary, search *string, f Filters) bool {
	if search != nil && *search != "" &&
		!strings.Contains(strings.ToLower(s.PatientName), strings.ToLower(*search)) {
		return false
	}
	if f.Gender != nil && s.Gender != *f.Gender {
		return false
	}
	if f.MinTurn != nil && s.Turn < *f.MinTurn {
		return false
	}
	return true
}

func compareField(a, b Summary, field string) int {
	switch field {
	case "PatientName":
		return strings.Compare(a.PatientName, b.PatientName)
	case "Gender":
		return strings.Compare(a.Gender, b.Gender)
	case "Age":
		return cmp.Compare(a.Age, b.Age)
	case "Turn":
		return cmp.Compare(a.Turn, b.Turn)
	case "CreatedAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "UpdatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return 0
	}
}
