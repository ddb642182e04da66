/*
File Name:  migrations.go
Package:    store

Forward-only v1->v2->v3 schema evolution, grounded on the teacher's
AutoMigrate-based single-shot migration plus the version-row-tracking
idea from original_source/collect-peers/src/main.rs's Store::new (which
queries a version table and special-cases "table does not exist" to
detect first run). Migration contract is bit-exact per spec.md §4.4.1.
*/

package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	versionV1 = "remule/collect/1"
	versionV2 = "remule/collect/2"
	versionV3 = "remule/collect/3"
)

// ErrOpen is returned when the underlying sqlite connection cannot be
// opened at all.
type ErrOpen struct {
	DSN   string
	Cause error
}

func (e *ErrOpen) Error() string {
	return fmt.Sprintf("store: open %q: %v", e.DSN, e.Cause)
}

func (e *ErrOpen) Unwrap() error { return e.Cause }

// ErrMigration wraps a failure during a specific named migration step.
type ErrMigration struct {
	Step  string
	Cause error
}

func (e *ErrMigration) Error() string {
	return fmt.Sprintf("store: migration %s: %v", e.Step, e.Cause)
}

func (e *ErrMigration) Unwrap() error { return e.Cause }

// migrate brings the database forward to versionV3, starting from
// whatever version row is latest (or from scratch if no version table
// exists yet). Runs inside a single transaction so a racing opener either
// observes the fully-migrated schema or none of it.
func (s *Store) migrate() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		current, err := latestVersion(tx)
		if err != nil {
			return &ErrMigration{Step: "read version", Cause: err}
		}

		switch current {
		case "":
			if err := createV3Schema(tx); err != nil {
				return &ErrMigration{Step: "create v3 schema", Cause: err}
			}
			return appendVersionRow(tx, versionV3)

		case versionV1:
			if err := migrateV1ToV2(tx); err != nil {
				return &ErrMigration{Step: "v1->v2", Cause: err}
			}
			if err := appendVersionRow(tx, versionV2); err != nil {
				return &ErrMigration{Step: "v1->v2 version row", Cause: err}
			}
			fallthrough

		case versionV2:
			if err := migrateV2ToV3(tx); err != nil {
				return &ErrMigration{Step: "v2->v3", Cause: err}
			}
			return appendVersionRow(tx, versionV3)

		case versionV3:
			return nil

		default:
			return &ErrMigration{Step: "read version", Cause: fmt.Errorf("unknown schema version %q", current)}
		}
	})
}

// latestVersion returns the version string of the most recent version
// row, or "" if the version table does not exist yet (first run).
func latestVersion(tx *gorm.DB) (string, error) {
	if !tx.Migrator().HasTable(&VersionRow{}) {
		return "", nil
	}

	var row VersionRow
	err := tx.Order("ts DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.Version, nil
}

func appendVersionRow(tx *gorm.DB, version string) error {
	id, err := uuid.NewUUID()
	if err != nil {
		return err
	}
	return tx.Create(&VersionRow{ID: id.String(), Version: version, Ts: nowMillis()}).Error
}

func createV3Schema(tx *gorm.DB) error {
	return tx.AutoMigrate(&Peer{}, &Report{}, &ReportContact{}, &VersionRow{})
}

// migrateV1ToV2 adds last_recv to the legacy peers table and renames
// last_heard to last_report.
func migrateV1ToV2(tx *gorm.DB) error {
	if err := tx.Exec("ALTER TABLE peers ADD COLUMN last_recv INTEGER").Error; err != nil {
		return err
	}
	return tx.Exec("ALTER TABLE peers RENAME COLUMN last_heard TO last_report").Error
}

// migrateV2ToV3 creates the normalized peer/report/report_contact tables,
// seeds peer from the legacy peers table (deduplicated by (kad_id, ip,
// udp_port), keeping the maximum last_send), and drops peers.
func migrateV2ToV3(tx *gorm.DB) error {
	if err := createV3Schema(tx); err != nil {
		return err
	}

	if !tx.Migrator().HasTable("peers") {
		return nil
	}

	if err := tx.Exec(`
		INSERT INTO peer (kad_id, ip, udp_port, last_send_time)
		SELECT id, ip, udp_port, MAX(last_send)
		FROM peers
		GROUP BY id, ip, udp_port
	`).Error; err != nil {
		return err
	}

	return tx.Migrator().DropTable("peers")
}
