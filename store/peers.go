/*
File Name:  peers.go
Package:    store

Grounded on original_source/collect-peers/src/main.rs's insert_contact /
peers() / handle_bootstrap_resp trio: the ORDER_BY SQL typo there is
corrected into valid ORDER BY, and its HashMap-upsert-via-guard pattern
is replaced with gorm's clause.OnConflict upsert.
*/

package store

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm/clause"
)

// ErrStoreOp wraps a failure from a single named store operation.
type ErrStoreOp struct {
	Op    string
	Cause error
}

func (e *ErrStoreOp) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Cause)
}

func (e *ErrStoreOp) Unwrap() error { return e.Cause }

// UpsertPeer inserts a new peer row for (kadID, ip, udpPort) if one does
// not already exist, or returns the existing row's id unchanged. Returns
// whether a new row was created.
func (s *Store) UpsertPeer(kadID, ip string, udpPort uint16) (wasNew bool, storeID uint, err error) {
	peer := Peer{KadID: kadID, IP: ip, UDPPort: udpPort}

	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&peer)
	if result.Error != nil {
		return false, 0, &ErrStoreOp{Op: "upsert_peer", Cause: result.Error}
	}
	if result.RowsAffected > 0 {
		return true, peer.StoreID, nil
	}

	var existing Peer
	if err := s.db.Where("kad_id = ? AND ip = ? AND udp_port = ?", kadID, ip, udpPort).First(&existing).Error; err != nil {
		return false, 0, &ErrStoreOp{Op: "upsert_peer fetch", Cause: err}
	}
	return false, existing.StoreID, nil
}

// InsertReport unconditionally inserts a report row, returning its id.
func (s *Store) InsertReport(sourcePeerID uint, recvTime int64) (reportID uint, err error) {
	report := Report{SourcePeerID: sourcePeerID, RecvTime: recvTime}
	if err := s.db.Create(&report).Error; err != nil {
		return 0, &ErrStoreOp{Op: "insert_report", Cause: err}
	}
	return report.StoreID, nil
}

// ReportedContact is a single contact (the reporter itself, or one of its
// named peers) to link into a report via InsertReportContact.
type ReportedContact struct {
	KadID          string
	IP             string
	UDPPort        uint16
	TCPPort        *uint16
	ContactVersion *uint8
	Verified       *bool
}

// InsertReportContact upserts the reported peer, then inserts a
// report_contact row linking reportID to it. Returns the was-new flag of
// the peer upsert so the engine can count newly-discovered peers.
func (s *Store) InsertReportContact(reportID uint, contact ReportedContact) (wasNewPeer bool, err error) {
	wasNewPeer, peerID, err := s.UpsertPeer(contact.KadID, contact.IP, contact.UDPPort)
	if err != nil {
		return false, err
	}

	row := ReportContact{
		ReportID:       reportID,
		ReportedPeerID: peerID,
		TCPPort:        contact.TCPPort,
		ContactVersion: contact.ContactVersion,
		Verified:       contact.Verified,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return false, &ErrStoreOp{Op: "insert_report_contact", Cause: err}
	}
	return wasNewPeer, nil
}

// MarkPeerSent updates a peer's last_send_time to now.
func (s *Store) MarkPeerSent(storeID uint) error {
	err := s.db.Model(&Peer{}).Where("store_id = ?", storeID).Update("last_send_time", nowMillis()).Error
	if err != nil {
		return &ErrStoreOp{Op: "mark_peer_sent", Cause: err}
	}
	return nil
}

// PeerSummary is one row yielded by Peers(): just enough to build and
// send a BootstrapReq.
type PeerSummary struct {
	StoreID uint
	KadID   string
	IP      string
	UDPPort uint16
}

// PeerStream is a streaming, oldest-sent-first iterator over the peer
// table. No snapshot isolation is guaranteed across the stream: a
// concurrent writer may cause a peer to appear twice across adjacent
// sweeps, which the collection engine tolerates.
type PeerStream struct {
	rows *sql.Rows
}

// Peers opens a fresh streaming query ordered by last_send_time ascending
// with NULLs first (peers never sent to are swept first).
func (s *Store) Peers() (*PeerStream, error) {
	rows, err := s.db.Raw(`
		SELECT store_id, kad_id, ip, udp_port
		FROM peer
		ORDER BY last_send_time IS NOT NULL, last_send_time ASC
	`).Rows()
	if err != nil {
		return nil, &ErrStoreOp{Op: "peers", Cause: err}
	}
	return &PeerStream{rows: rows}, nil
}

// Next advances the stream. It returns false once the stream is
// exhausted or on error; call Err to distinguish the two.
func (ps *PeerStream) Next() bool {
	return ps.rows.Next()
}

// Scan reads the current row.
func (ps *PeerStream) Scan() (PeerSummary, error) {
	var p PeerSummary
	if err := ps.rows.Scan(&p.StoreID, &p.KadID, &p.IP, &p.UDPPort); err != nil {
		return PeerSummary{}, &ErrStoreOp{Op: "peers scan", Cause: err}
	}
	return p, nil
}

// Err returns any error encountered during iteration.
func (ps *PeerStream) Err() error {
	return ps.rows.Err()
}

// Close releases the underlying database cursor.
func (ps *PeerStream) Close() error {
	return ps.rows.Close()
}
