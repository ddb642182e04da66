package store

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// seedLegacyV1 creates a bare v1 schema (version table + legacy peers
// table) directly, bypassing Store.Open, so migrate() has real v1 state
// to walk forward from.
func seedLegacyV1(t *testing.T, dsn string) {
	t.Helper()

	seed, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("seed open: %v", err)
	}

	if err := seed.Exec(`CREATE TABLE version (id TEXT PRIMARY KEY, version TEXT NOT NULL, ts INTEGER NOT NULL)`).Error; err != nil {
		t.Fatalf("create version table: %v", err)
	}
	if err := seed.Exec(`CREATE TABLE peers (
		id TEXT NOT NULL,
		ip TEXT NOT NULL,
		udp_port INTEGER NOT NULL,
		tcp_port INTEGER,
		contact_version INTEGER,
		kad_udp_key_key INTEGER,
		kad_udp_key_id INTEGER,
		verified INTEGER,
		last_heard INTEGER,
		last_send INTEGER,
		PRIMARY KEY (id, ip, udp_port, tcp_port)
	)`).Error; err != nil {
		t.Fatalf("create legacy peers table: %v", err)
	}
	if err := seed.Exec(`INSERT INTO version (id, version, ts) VALUES (?, ?, ?)`, "seed-1", versionV1, 0).Error; err != nil {
		t.Fatalf("seed version row: %v", err)
	}

	// Two legacy rows for the same (id, ip, udp_port) but different
	// tcp_port, as the legacy primary key allowed; v2->v3 must collapse
	// them into one peer row keeping the greater last_send.
	if err := seed.Exec(`INSERT INTO peers (id, ip, udp_port, tcp_port, last_send) VALUES (?,?,?,?,?)`,
		"abc", "1.2.3.4", 4672, 4662, 100).Error; err != nil {
		t.Fatalf("seed peer row 1: %v", err)
	}
	if err := seed.Exec(`INSERT INTO peers (id, ip, udp_port, tcp_port, last_send) VALUES (?,?,?,?,?)`,
		"abc", "1.2.3.4", 4672, 4663, 200).Error; err != nil {
		t.Fatalf("seed peer row 2: %v", err)
	}

	sqlDB, err := seed.DB()
	if err != nil {
		t.Fatalf("seed.DB(): %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close seed connection: %v", err)
	}
}

func TestMigrateV1ToV3(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "test.db")
	seedLegacyV1(t, dsn)

	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var versions []VersionRow
	if err := s.db.Order("ts ASC").Find(&versions).Error; err != nil {
		t.Fatal(err)
	}
	if len(versions) != 3 {
		t.Fatalf("len(versions) = %d, want 3 (v1 seed, v2, v3)", len(versions))
	}
	if versions[len(versions)-1].Version != versionV3 {
		t.Fatalf("latest version = %q, want %q", versions[len(versions)-1].Version, versionV3)
	}

	var peers []Peer
	if err := s.db.Find(&peers).Error; err != nil {
		t.Fatal(err)
	}
	if len(peers) != 1 {
		t.Fatalf("len(peers) = %d, want 1 deduplicated peer", len(peers))
	}
	if peers[0].KadID != "abc" || peers[0].IP != "1.2.3.4" || peers[0].UDPPort != 4672 {
		t.Fatalf("peers[0] = %+v, want kad_id=abc ip=1.2.3.4 udp_port=4672", peers[0])
	}
	if peers[0].LastSendTime == nil || *peers[0].LastSendTime != 200 {
		t.Fatalf("peers[0].LastSendTime = %v, want 200 (max of the two legacy rows)", peers[0].LastSendTime)
	}

	if s.db.Migrator().HasTable("peers") {
		t.Fatal("legacy peers table should have been dropped after migrating to v3")
	}
}

func TestOpenTwiceConvergesOnSameVersion(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(dsn)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	sqlDB, err := s1.db.DB()
	if err != nil {
		t.Fatalf("s1.db.DB(): %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close first connection: %v", err)
	}

	s2, err := Open(dsn)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}

	var versions []VersionRow
	if err := s2.db.Order("ts ASC").Find(&versions).Error; err != nil {
		t.Fatal(err)
	}
	if len(versions) != 1 {
		t.Fatalf("len(versions) = %d, want 1 (schema created once, second Open is a no-op)", len(versions))
	}
	if versions[0].Version != versionV3 {
		t.Fatalf("version = %q, want %q", versions[0].Version, versionV3)
	}
}

func TestOpenFreshDatabaseSkipsStraightToV3(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	for _, table := range []string{"peer", "report", "report_contact", "version"} {
		if !s.db.Migrator().HasTable(table) {
			t.Errorf("expected table %q to exist after a fresh Open", table)
		}
	}
	if s.db.Migrator().HasTable("peers") {
		t.Error("legacy peers table should never be created for a fresh database")
	}
}
