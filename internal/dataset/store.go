package dataset

import (
	"context"
	"fmt"
	"log/slog"

	"fertpulse/internal/aggregation"
	apierrors "fertpulse/internal/errors"
	"fertpulse/internal/files"
	"fertpulse/pkg/contracts/domain"
)

// ResourceName identifies the dataset in load states and logs.
const ResourceName = "dataset"

// Store holds the immutable record set.
type Store struct {
	loader *files.Loader[[]domain.Record]
}

// NewStore creates a store that will read source through opener.
func NewStore(source string, opener *files.Opener, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	load := func(ctx context.Context) ([]domain.Record, int, error) {
		records, err := Read(ctx, opener, source)
		if err != nil {
			return nil, 0, err
		}
		Inspect(records).Log(ctx, logger)
		return records, len(records), nil
	}
	return &Store{loader: files.NewLoader(ResourceName, source, load, logger)}
}

// NewStaticStore wraps records that are already in memory.
func NewStaticStore(records []domain.Record) *Store {
	if records == nil {
		records = []domain.Record{}
	}
	return &Store{loader: files.NewReadyLoader(ResourceName, records, len(records))}
}

// Read opens and decodes source.
func Read(ctx context.Context, opener *files.Opener, source string) ([]domain.Record, error) {
	format, err := FormatOf(source)
	if err != nil {
		return nil, err
	}
	rc, err := opener.Open(ctx, source)
	if err != nil {
		if files.IsRemote(source) {
			return nil, apierrors.NewNetworkError("failed to fetch dataset", err)
		}
		return nil, err
	}
	defer rc.Close()

	records, err := Decode(rc, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return records, nil
}

// Start loads the dataset in the background.
func (s *Store) Start(ctx context.Context) {
	s.loader.Start(ctx)
}

// Load loads the dataset if needed and waits for it.
func (s *Store) Load(ctx context.Context) ([]domain.Record, error) {
	return s.loader.Load(ctx)
}

// Records returns the shared record slice. Callers must not modify it.
// It fails with files.ErrNotReady or files.ErrLoadFailed until the dataset
// is ready.
func (s *Store) Records() ([]domain.Record, error) {
	return s.loader.Get()
}

// State reports the load status.
func (s *Store) State() domain.LoadState {
	return s.loader.State()
}

// Done is closed once loading finished either way.
func (s *Store) Done() <-chan struct{} {
	return s.loader.Done()
}

// Quality summarises problems found in a loaded dataset. None of them stop
// the load.
type Quality struct {
	Records         int               `json:"records"`
	DuplicateIDs    []domain.RecordID `json:"duplicate_ids,omitempty"`
	MissingIDs      int               `json:"missing_ids"`
	UnknownMonths   int               `json:"unknown_months"`
	InvalidQuantity int               `json:"invalid_quantities"`
	InvalidYears    int               `json:"invalid_years"`
}

// Inspect checks ids, years, months and quantities.
func Inspect(records []domain.Record) Quality {
	q := Quality{Records: len(records)}
	seen := make(map[domain.RecordID]bool, len(records))
	for _, r := range records {
		switch {
		case r.ID == "":
			q.MissingIDs++
		case seen[r.ID]:
			q.DuplicateIDs = append(q.DuplicateIDs, r.ID)
		default:
			seen[r.ID] = true
		}
		if r.RawYear != "" {
			q.InvalidYears++
		}
		if r.Month != "" && !aggregation.IsMonth(r.Month) {
			q.UnknownMonths++
		}
	}
	q.InvalidQuantity = aggregation.GroupAndSum(records, func(domain.Record) string { return "" }).Invalid
	return q
}

// Clean reports whether nothing suspicious was found.
func (q Quality) Clean() bool {
	return len(q.DuplicateIDs) == 0 && q.MissingIDs == 0 && q.UnknownMonths == 0 &&
		q.InvalidQuantity == 0 && q.InvalidYears == 0
}

// Log writes the report, as a warning when something was found.
func (q Quality) Log(ctx context.Context, logger *slog.Logger) {
	attrs := []any{
		slog.Int("records", q.Records),
		slog.Int("duplicate_ids", len(q.DuplicateIDs)),
		slog.Int("missing_ids", q.MissingIDs),
		slog.Int("unknown_months", q.UnknownMonths),
		slog.Int("invalid_quantities", q.InvalidQuantity),
		slog.Int("invalid_years", q.InvalidYears),
	}
	if q.Clean() {
		logger.InfoContext(ctx, "Dataset quality check passed", attrs...)
		return
	}
	logger.WarnContext(ctx, "Dataset quality issues found", attrs...)
}
