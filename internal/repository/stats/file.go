package stats

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/alarm-scheduler/internal/config"
	domain "github.com/oshokin/alarm-scheduler/internal/domain/alarm"
)

// Repository defines persistence operations for stats snapshots.
type Repository interface {
	Load(ctx context.Context) (*domain.Stats, error)
	Save(ctx context.Context, stats *domain.Stats) error
}

// FileRepository keeps the latest snapshot in a JSON file.
type FileRepository struct {
	// path is the filesystem location of the snapshot file.
	path string
	// mu serialises access to the file.
	mu sync.Mutex
}

var (
	// ErrNotFound is returned when no snapshot has been written yet.
	ErrNotFound = errors.New("stats snapshot not found")
	// errStatsRequired is returned when Save is called with nil stats.
	errStatsRequired = errors.New("stats must be provided")
)

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the latest snapshot from disk.
func (r *FileRepository) Load(_ context.Context) (*domain.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read stats file: %w", err)
	}

	var message structpb.Struct
	if err = protojson.Unmarshal(contents, &message); err != nil {
		return nil, fmt.Errorf("decode stats file: %w", err)
	}

	return FromStruct(&message)
}

// Save overwrites the snapshot on disk.
// The file is replaced through a rename so readers never see a partial write.
func (r *FileRepository) Save(_ context.Context, stats *domain.Stats) error {
	if stats == nil {
		return errStatsRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	message, err := ToStruct(stats)
	if err != nil {
		return err
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := marshalOptions.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	tmp := r.path + ".tmp"
	if err = os.WriteFile(tmp, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write stats file: %w", err)
	}

	if err = os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace stats file: %w", err)
	}

	return nil
}

// ToStruct converts domain stats into a protobuf Struct.
// Timestamps are RFC 3339 strings with nanoseconds.
func ToStruct(stats *domain.Stats) (*structpb.Struct, error) {
	fields := map[string]any{
		"timestamp":  formatTime(stats.Timestamp),
		"pending":    stats.Pending,
		"fired":      stats.Fired,
		"failed":     stats.Failed,
		"last_start": executionToMap(stats.LastStart),
		"last_end":   executionToMap(stats.LastEnd),
	}

	message, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build stats struct: %w", err)
	}

	return message, nil
}

// FromStruct converts a protobuf Struct produced by ToStruct back into domain stats.
func FromStruct(message *structpb.Struct) (*domain.Stats, error) {
	fields := message.GetFields()

	timestamp, err := parseTime(fields["timestamp"].GetStringValue())
	if err != nil {
		return nil, err
	}

	lastStart, err := executionFromValue(fields["last_start"])
	if err != nil {
		return nil, err
	}

	lastEnd, err := executionFromValue(fields["last_end"])
	if err != nil {
		return nil, err
	}

	return &domain.Stats{
		Timestamp: timestamp,
		Pending:   int(fields["pending"].GetNumberValue()),
		Fired:     uint64(fields["fired"].GetNumberValue()),
		Failed:    uint64(fields["failed"].GetNumberValue()),
		LastStart: lastStart,
		LastEnd:   lastEnd,
	}, nil
}

func executionToMap(e *domain.Execution) any {
	if e == nil {
		return nil
	}

	return map[string]any{
		"alarm_id": e.AlarmID,
		"callback": e.Callback,
		"time":     formatTime(e.Time),
		"error":    e.Error,
	}
}

func executionFromValue(v *structpb.Value) (*domain.Execution, error) {
	s := v.GetStructValue()
	if s == nil {
		return nil, nil //nolint:nilnil // A missing record is not an error.
	}

	fields := s.GetFields()

	at, err := parseTime(fields["time"].GetStringValue())
	if err != nil {
		return nil, err
	}

	return &domain.Execution{
		AlarmID:  fields["alarm_id"].GetStringValue(),
		Callback: fields["callback"].GetStringValue(),
		Time:     at,
		Error:    fields["error"].GetStringValue(),
	}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}

	return t, nil
}
