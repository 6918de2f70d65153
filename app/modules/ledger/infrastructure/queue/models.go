package ledgerqueue

import "github.com/google/uuid"

// BackupRestoreJob retries the restore of a guarded operation whose inline
// restore failed.
type BackupRestoreJob struct {
	OpID uuid.UUID `json:"op_id"`
}

// Kind returns the job type identifier for River
func (BackupRestoreJob) Kind() string { return "backup_restore" }

// LedgerAuditJob sweeps stale backups and reports ratings whose counters no
// longer add up.
type LedgerAuditJob struct{}

// Kind returns the job type identifier for River
func (LedgerAuditJob) Kind() string { return "ledger_audit" }
