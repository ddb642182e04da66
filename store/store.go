/*
File Name:  store.go
Package:    store

Grounded directly on the teacher's Sqlite Search Index Migration.go
(gorm.Open(sqlite.Open(path), &gorm.Config{}), google/uuid-keyed rows).
Schema and migration contract per spec.md §3.2/§4.4.1.
*/

package store

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Peer is a single observed Kad contact, unique by (KadID, IP, UDPPort).
// LastSendTime is nil until this crawler has sent it a BootstrapReq.
type Peer struct {
	StoreID      uint   `gorm:"primaryKey;column:store_id"`
	KadID        string `gorm:"column:kad_id;uniqueIndex:peer_unique;not null"`
	IP           string `gorm:"column:ip;uniqueIndex:peer_unique;not null"`
	UDPPort      uint16 `gorm:"column:udp_port;uniqueIndex:peer_unique;not null"`
	LastSendTime *int64 `gorm:"column:last_send_time"`
}

// TableName pins the gorm model to the singular table name spec.md names.
func (Peer) TableName() string { return "peer" }

// Report records one accepted inbound BootstrapResp.
type Report struct {
	StoreID      uint  `gorm:"primaryKey;column:store_id"`
	SourcePeerID uint  `gorm:"column:source_peer_id;not null"`
	RecvTime     int64 `gorm:"column:recv_time;not null"`
}

func (Report) TableName() string { return "report" }

// ReportContact is one contact named within a Report: either the
// reporter itself (TCPPort/ContactVersion nil) or one of the peers it
// reported knowing about.
type ReportContact struct {
	StoreID        uint    `gorm:"primaryKey;column:store_id"`
	ReportID       uint    `gorm:"column:report_id;not null"`
	ReportedPeerID uint    `gorm:"column:reported_peer_id;not null"`
	TCPPort        *uint16 `gorm:"column:tcp_port"`
	ContactVersion *uint8  `gorm:"column:contact_version"`
	Verified       *bool   `gorm:"column:verified"`
}

func (ReportContact) TableName() string { return "report_contact" }

// VersionRow is one entry in the append-only schema version log. ID is a
// google/uuid value so version history stays globally unique even across
// a restored/copied database file, matching the uuid.NewUUID()-keyed row
// convention the teacher uses for its own SearchIndex table.
type VersionRow struct {
	ID      string `gorm:"primaryKey;column:id"`
	Version string `gorm:"column:version;not null"`
	Ts      int64  `gorm:"column:ts;not null"`
}

func (VersionRow) TableName() string { return "version" }

// Store wraps a pooled connection to the peer/report database.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if necessary) the sqlite database at dsn and
// applies any pending forward migrations inside a single transaction. A
// fresh database is initialized directly at the current schema version.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, &ErrOpen{DSN: dsn, Cause: err}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
