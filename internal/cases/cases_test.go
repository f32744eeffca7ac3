package cases_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"

	"github.com/JaimeStill/rounds/internal/cases"
	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/pkg/pagination"
)

var pageConfig = pagination.Config{DefaultPageSize: 10, MaxPageSize: 50}

func newStore() cases.System {
	return cases.NewMemory(slog.New(slog.NewTextHandler(io.Discard, nil)), pageConfig)
}

func newCase(t *testing.T, store cases.System, name, gender string, age int) *clinical.State {
	t.Helper()
	s := clinical.New(uuid.New(), clinical.Patient{Name: name, Age: age, Gender: gender}, "fever for two days")
	if err := store.Create(context.Background(), s); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	return s
}

func TestCreateFind(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	s := newCase(t, store, "Ada", "Female", 34)
	if s.Version != 1 {
		t.Errorf("Version = %d, want 1", s.Version)
	}

	if err := store.Create(ctx, s); !errors.Is(err, cases.ErrDuplicate) {
		t.Errorf("second Create error = %v, want ErrDuplicate", err)
	}

	got, err := store.Find(ctx, s.CaseID)
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	if diff := cmp.Diff(s, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Find mismatch (-want +got):\n%s", diff)
	}

	if _, err := store.Find(ctx, uuid.New()); !errors.Is(err, cases.ErrNotFound) {
		t.Errorf("Find(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestFindReturnsCopy(t *testing.T) {
	store := newStore()
	ctx := context.Background()
	s := newCase(t, store, "Ada", "Female", 34)

	got, err := store.Find(ctx, s.CaseID)
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	if _, err := got.AddDoctorEvidence("cough", clinical.TypeSymptom, clinical.PolarityPositive); err != nil {
		t.Fatalf("AddDoctorEvidence error: %v", err)
	}

	again, _ := store.Find(ctx, s.CaseID)
	if len(again.Evidence) != 0 {
		t.Errorf("store shares memory with caller: %d evidence entries", len(again.Evidence))
	}
}

func TestCommit(t *testing.T) {
	store := newStore()
	ctx := context.Background()
	s := newCase(t, store, "Ada", "Female", 34)

	s.Turn = 1
	if err := store.Commit(ctx, s, 1); err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	if s.Version != 2 {
		t.Errorf("Version = %d, want 2", s.Version)
	}

	stale := s.Clone()
	if err := store.Commit(ctx, stale, 1); !errors.Is(err, cases.ErrConflict) {
		t.Errorf("stale Commit error = %v, want ErrConflict", err)
	}

	missing := clinical.New(uuid.New(), s.Patient, "")
	if err := store.Commit(ctx, missing, 1); !errors.Is(err, cases.ErrNotFound) {
		t.Errorf("Commit(unknown) error = %v, want ErrNotFound", err)
	}

	got, _ := store.Find(ctx, s.CaseID)
	if got.Turn != 1 || got.Version != 2 {
		t.Errorf("committed turn/version = %d/%d, want 1/2", got.Turn, got.Version)
	}
}

func TestUpdate(t *testing.T) {
	store := newStore()
	ctx := context.Background()
	s := newCase(t, store, "Ada", "Female", 34)

	got, err := store.Update(ctx, s.CaseID, func(st *clinical.State) error {
		_, err := st.AddDoctorEvidence("cough", clinical.TypeSymptom, clinical.PolarityPositive)
		return err
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if got.Version != 2 || len(got.Evidence) != 1 {
		t.Errorf("Update result version=%d evidence=%d, want 2 and 1", got.Version, len(got.Evidence))
	}

	boom := errors.New("boom")
	_, err = store.Update(ctx, s.CaseID, func(st *clinical.State) error {
		st.Evidence = nil
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Update error = %v, want boom", err)
	}

	after, _ := store.Find(ctx, s.CaseID)
	if after.Version != 2 || len(after.Evidence) != 1 {
		t.Errorf("failed Update was stored: version=%d evidence=%d", after.Version, len(after.Evidence))
	}

	if _, err := store.Update(ctx, uuid.New(), func(*clinical.State) error { return nil }); !errors.Is(err, cases.ErrNotFound) {
		t.Errorf("Update(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestConcurrentUpdates(t *testing.T) {
	store := newStore()
	ctx := context.Background()
	s := newCase(t, store, "Ada", "Female", 34)

	const n = 20
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, s.CaseID, func(st *clinical.State) error {
				st.SafetyChecklist = append(st.SafetyChecklist, "check")
				return nil
			})
			if err != nil {
				t.Errorf("Update error: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := store.Find(ctx, s.CaseID)
	if len(got.SafetyChecklist) != n || got.Version != n+1 {
		t.Errorf("checklist=%d version=%d, want %d and %d", len(got.SafetyChecklist), got.Version, n, n+1)
	}
}

func TestList(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	ada := newCase(t, store, "Ada Lovelace", "Female", 34)
	newCase(t, store, "Alan Turing", "Male", 41)
	newCase(t, store, "Grace Hopper", "Female", 79)

	ada.Turn = 3
	if err := store.Commit(ctx, ada, ada.Version); err != nil {
		t.Fatalf("Commit error: %v", err)
	}

	female := "Female"
	minTurn := 1

	tests := []struct {
		name    string
		page    pagination.PageRequest
		filters cases.Filters
		want    []string
		total   int
	}{
		{
			name:  "sorted by name",
			page:  pagination.NewPageRequest(1, 10, "", "PatientName", pageConfig),
			want:  []string{"Ada Lovelace", "Alan Turing", "Grace Hopper"},
			total: 3,
		},
		{
			name:  "descending age",
			page:  pagination.NewPageRequest(1, 10, "", "-Age", pageConfig),
			want:  []string{"Grace Hopper", "Alan Turing", "Ada Lovelace"},
			total: 3,
		},
		{
			name:  "search",
			page:  pagination.NewPageRequest(1, 10, "hop", "", pageConfig),
			want:  []string{"Grace Hopper"},
			total: 1,
		},
		{
			name:    "gender filter",
			page:    pagination.NewPageRequest(1, 10, "", "PatientName", pageConfig),
			filters: cases.Filters{Gender: &female},
			want:    []string{"Ada Lovelace", "Grace Hopper"},
			total:   2,
		},
		{
			name:    "min turn",
			page:    pagination.NewPageRequest(1, 10, "", "", pageConfig),
			filters: cases.Filters{MinTurn: &minTurn},
			want:    []string{"Ada Lovelace"},
			total:   1,
		},
		{
			name:  "second page",
			page:  pagination.NewPageRequest(2, 2, "", "PatientName", pageConfig),
			want:  []string{"Grace Hopper"},
			total: 3,
		},
		{
			name:  "past the end",
			page:  pagination.NewPageRequest(5, 2, "", "", pageConfig),
			want:  []string{},
			total: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := store.List(ctx, tt.page, tt.filters)
			if err != nil {
				t.Fatalf("List error: %v", err)
			}
			if result.Total != tt.total {
				t.Errorf("Total = %d, want %d", result.Total, tt.total)
			}

			got := make([]string, 0, len(result.Data))
			for _, s := range result.Data {
				got = append(got, s.PatientName)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("names mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
