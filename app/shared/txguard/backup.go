package txguard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrBackupNotFound indicates there is no backup for an operation id.
var ErrBackupNotFound = errors.New("backup not found")

// BackupStatus tracks a backup through its lifecycle.
type BackupStatus string

const (
	// BackupPending is written before the guarded unit runs.
	BackupPending BackupStatus = "pending"
	// BackupRestoreFailed marks a backup whose restore must be retried.
	BackupRestoreFailed BackupStatus = "restore_failed"
)

// Backup is the persisted pre-mutation snapshot of a guarded operation.
type Backup struct {
	bun.BaseModel `bun:"table:ledger_backups,alias:lb"`

	OpID      uuid.UUID       `bun:"op_id,pk,type:uuid"`
	Operation string          `bun:"operation,notnull"`
	Sections  json.RawMessage `bun:"sections,type:jsonb,notnull"`
	Status    BackupStatus    `bun:"status,notnull"`
	Attempts  int             `bun:"attempts,notnull,default:0"`
	LastError string          `bun:"last_error"`
	CreatedAt time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Store persists backups.
type Store interface {
	Save(ctx context.Context, db bun.IDB, backup *Backup) error
	Get(ctx context.Context, db bun.IDB, opID uuid.UUID) (*Backup, error)
	// Lock reads a backup and holds its row until db's transaction ends. It
	// waits for a unit that is still running on the same op id.
	Lock(ctx context.Context, db bun.IDB, opID uuid.UUID) (*Backup, error)
	MarkRestoreFailed(ctx context.Context, db bun.IDB, opID uuid.UUID, reason string) error
	Delete(ctx context.Context, db bun.IDB, opID uuid.UUID) error
	ListStale(ctx context.Context, db bun.IDB, olderThan time.Time, limit int) ([]Backup, error)
}

// BunStore implements Store using Bun ORM.
type BunStore struct {
	db bun.IDB
}

// NewStore creates a backup store.
func NewStore(db bun.IDB) *BunStore {
	return &BunStore{db: db}
}

func (s *BunStore) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return s.db
	}
	return db
}

func (s *BunStore) Save(ctx context.Context, db bun.IDB, backup *Backup) error {
	db = s.resolveDB(db)
	now := time.Now().UTC()
	backup.CreatedAt = now
	backup.UpdatedAt = now
	if _, err := db.NewInsert().Model(backup).Exec(ctx); err != nil {
		return fmt.Errorf("txguard.Save: %w", err)
	}
	return nil
}

func (s *BunStore) Get(ctx context.Context, db bun.IDB, opID uuid.UUID) (*Backup, error) {
	db = s.resolveDB(db)
	backup := new(Backup)
	err := db.NewSelect().Model(backup).Where("op_id = ?", opID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBackupNotFound
		}
		return nil, fmt.Errorf("txguard.Get: %w", err)
	}
	return backup, nil
}

func (s *BunStore) Lock(ctx context.Context, db bun.IDB, opID uuid.UUID) (*Backup, error) {
	db = s.resolveDB(db)
	backup := new(Backup)
	err := db.NewSelect().Model(backup).Where("op_id = ?", opID).For("UPDATE").Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBackupNotFound
		}
		return nil, fmt.Errorf("txguard.Lock: %w", err)
	}
	return backup, nil
}

func (s *BunStore) MarkRestoreFailed(ctx context.Context, db bun.IDB, opID uuid.UUID, reason string) error {
	db = s.resolveDB(db)
	_, err := db.NewUpdate().
		Model((*Backup)(nil)).
		Set("status = ?", BackupRestoreFailed).
		Set("attempts = attempts + 1").
		Set("last_error = ?", reason).
		Set("updated_at = ?", time.Now().UTC()).
		Where("op_id = ?", opID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("txguard.MarkRestoreFailed: %w", err)
	}
	return nil
}

func (s *BunStore) Delete(ctx context.Context, db bun.IDB, opID uuid.UUID) error {
	db = s.resolveDB(db)
	if _, err := db.NewDelete().Model((*Backup)(nil)).Where("op_id = ?", opID).Exec(ctx); err != nil {
		return fmt.Errorf("txguard.Delete: %w", err)
	}
	return nil
}

func (s *BunStore) ListStale(ctx context.Context, db bun.IDB, olderThan time.Time, limit int) ([]Backup, error) {
	db = s.resolveDB(db)
	var backups []Backup
	q := db.NewSelect().
		Model(&backups).
		Where("updated_at < ?", olderThan).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("txguard.ListStale: %w", err)
	}
	return backups, nil
}

type encodedSection struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func encodeSections(sections []Section) (json.RawMessage, error) {
	encoded := make([]encodedSection, 0, len(sections))
	for _, s := range sections {
		data, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("encode section %s: %w", s.Kind(), err)
		}
		encoded = append(encoded, encodedSection{Kind: s.Kind(), Data: data})
	}
	return json.Marshal(encoded)
}
