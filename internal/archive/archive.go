// Package archive keeps an append-only history of committed turns in blob
// storage. Each record holds the stage outputs, the warnings, the delta the
// stages saw, and the state that was committed.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/internal/grants"
	"github.com/JaimeStill/rounds/internal/workflow"
	"github.com/JaimeStill/rounds/pkg/storage"
)

const contentType = "application/json"

var (
	ErrNotFound = errors.New("turn record not found")
	ErrExists   = errors.New("turn record already archived")
)

// Record is the archived account of one committed turn.
type Record struct {
	CaseID     uuid.UUID          `json:"case_id"`
	Turn       int                `json:"turn"`
	Message    string             `json:"message,omitempty"`
	Phase      workflow.Phase     `json:"phase"`
	Outputs    workflow.Outputs   `json:"outputs"`
	Warnings   []grants.Violation `json:"warnings"`
	Delta      clinical.Delta     `json:"delta"`
	State      *clinical.State    `json:"state"`
	RecordedAt time.Time          `json:"recorded_at"`
}

// NewRecord builds the record of a merged turn.
func NewRecord(ts *workflow.TurnState) *Record {
	return &Record{
		CaseID:     ts.Working.CaseID,
		Turn:       ts.Working.Turn,
		Message:    ts.Message,
		Phase:      ts.Phase,
		Outputs:    ts.Outputs,
		Warnings:   ts.Warnings,
		Delta:      ts.Delta,
		State:      ts.Working,
		RecordedAt: time.Now().UTC(),
	}
}

// System stores and retrieves turn records.
type System interface {
	// Write stores r. Records are write-once: returns ErrExists if the turn
	// was already archived.
	Write(ctx context.Context, r *Record) error
	// Load returns the record of one turn.
	Load(ctx context.Context, caseID uuid.UUID, turn int) (*Record, error)
	// History returns the archived turn numbers of a case in ascending order.
	History(ctx context.Context, caseID uuid.UUID) ([]int, error)
}

type blobArchive struct {
	store  storage.System
	logger *slog.Logger
}

// New creates an archive over a blob store.
func New(store storage.System, logger *slog.Logger) System {
	return &blobArchive{
		store:  store,
		logger: logger.With("system", "archive"),
	}
}

// Key returns the blob key of a turn record.
func Key(caseID uuid.UUID, turn int) string {
	return fmt.Sprintf("%s%06d.json", prefix(caseID), turn)
}

func prefix(caseID uuid.UUID) string {
	return fmt.Sprintf("cases/%s/turns/", caseID)
}

func (a *blobArchive) Write(ctx context.Context, r *Record) error {
	key := Key(r.CaseID, r.Turn)

	exists, err := a.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("archive turn %d: %w", r.Turn, err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrExists, key)
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode turn record: %w", err)
	}

	if err := a.store.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return fmt.Errorf("archive turn %d: %w", r.Turn, err)
	}

	a.logger.InfoContext(ctx, "turn archived", "case_id", r.CaseID, "turn", r.Turn, "key", key)
	return nil
}

func (a *blobArchive) Load(ctx context.Context, caseID uuid.UUID, turn int) (*Record, error) {
	body, err := a.store.Download(ctx, Key(caseID, turn))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer body.Close()

	var r Record
	if err := json.NewDecoder(body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode turn record: %w", err)
	}
	return &r, nil
}

func (a *blobArchive) History(ctx context.Context, caseID uuid.UUID) ([]int, error) {
	keys, err := a.store.List(ctx, prefix(caseID))
	if err != nil {
		return nil, err
	}

	turns := make([]int, 0, len(keys))
	for _, key := range keys {
		name, ok := strings.CutSuffix(path.Base(key), ".json")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(name)
		if err != nil {
			a.logger.WarnContext(ctx, "skipping unrecognized archive key", "key", key)
			continue
		}
		turns = append(turns, n)
	}

	slices.Sort(turns)
	return turns, nil
}
