package remule

import (
	"encoding/binary"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/emuled/remule/routing"
	"github.com/emuled/remule/store"
	"github.com/emuled/remule/wire"
)

// buildBootstrapRespBody encodes a BootstrapResp envelope by hand,
// matching wire/kad_test.go's makeContactBytes layout: client id (16) +
// client port (2) + client version (1) + num contacts (2) + contacts
// (25 bytes each: id(16)+ip(4)+udp(2)+tcp(2)+version(1)).
func buildBootstrapRespBody(clientLo, clientHi uint64, clientPort uint16, contactLo uint64, contactIP uint32, contactUDP uint16) []byte {
	body := make([]byte, 0, 48)
	body = appendU128(body, clientLo, clientHi)
	body = appendU16(body, clientPort)
	body = append(body, 0x01) // client version
	body = appendU16(body, 1) // num contacts

	body = appendU128(body, contactLo, 0)
	body = appendU32(body, contactIP)
	body = appendU16(body, contactUDP)
	body = appendU16(body, 0) // tcp port
	body = append(body, 0x01) // contact version
	return body
}

func appendU128(buf []byte, lo, hi uint64) []byte {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[:8], lo)
	binary.LittleEndian.PutUint64(b[8:], hi)
	return append(buf, b[:]...)
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendU16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dsn)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	return &Backend{
		Store:   st,
		Routing: routing.NewTable(KadIDBytes(0xff, 0)),
	}
}

func TestHandleBootstrapRespRecordsSourceAndContacts(t *testing.T) {
	backend := newTestBackend(t)

	addr := &net.UDPAddr{IP: net.ParseIP("203.0.113.9"), Port: 5000}
	// 198.51.100.7 as a little-endian-wire uint32, matching formatIPv4's convention.
	contactIP := uint32(198) | uint32(51)<<8 | uint32(100)<<16 | uint32(7)<<24
	body := buildBootstrapRespBody(1, 0, 5000, 2, contactIP, 4672)

	resp, err := wire.BootstrapRespFromBytes(body)
	if err != nil {
		t.Fatalf("BootstrapRespFromBytes: %v", err)
	}

	recvTime := time.Unix(1700000000, 0)
	if err := backend.handleBootstrapResp(resp, addr, recvTime); err != nil {
		t.Fatalf("handleBootstrapResp: %v", err)
	}

	sourceKadID := KadIDString(1, 0)
	_, sourceID, err := backend.Store.UpsertPeer(sourceKadID, addr.IP.String(), uint16(addr.Port))
	if err != nil {
		t.Fatalf("UpsertPeer (reverify source): %v", err)
	}

	stream, err := backend.Store.Peers()
	if err != nil {
		t.Fatalf("Peers: %v", err)
	}
	defer stream.Close()

	found := map[uint]bool{}
	for stream.Next() {
		p, err := stream.Scan()
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		found[p.StoreID] = true
	}
	if !found[sourceID] {
		t.Errorf("source peer %d not found in store after handleBootstrapResp", sourceID)
	}
	if len(found) != 2 {
		t.Errorf("found %d peers, want 2 (source + 1 contact)", len(found))
	}

	if backend.Routing.TotalNodes() != 2 {
		t.Errorf("Routing.TotalNodes() = %d, want 2", backend.Routing.TotalNodes())
	}
}

func TestHandleBootstrapRespZeroContactsStillRecordsSelfReport(t *testing.T) {
	backend := newTestBackend(t)
	addr := &net.UDPAddr{IP: net.ParseIP("203.0.113.9"), Port: 5000}

	body := make([]byte, 0, 21)
	body = appendU128(body, 3, 0)
	body = appendU16(body, 5000)
	body = append(body, 0x01) // client version
	body = appendU16(body, 0) // num contacts = 0

	resp, err := wire.BootstrapRespFromBytes(body)
	if err != nil {
		t.Fatalf("BootstrapRespFromBytes: %v", err)
	}
	if err := backend.handleBootstrapResp(resp, addr, time.Unix(1700000000, 0)); err != nil {
		t.Fatalf("handleBootstrapResp: %v", err)
	}

	stream, err := backend.Store.Peers()
	if err != nil {
		t.Fatalf("Peers: %v", err)
	}
	defer stream.Close()

	count := 0
	for stream.Next() {
		count++
	}
	if count != 1 {
		t.Errorf("peer count = %d, want 1 (the reporter itself)", count)
	}
}

func TestHandleBootstrapRespAcceptsMismatchedClientPort(t *testing.T) {
	backend := newTestBackend(t)
	// datagram arrives from port 4242 but the reporter claims 6929.
	addr := &net.UDPAddr{IP: net.ParseIP("1.2.3.4"), Port: 4242}

	contactIP := uint32(9) | uint32(9)<<8 | uint32(9)<<16 | uint32(9)<<24
	body := buildBootstrapRespBody(4, 0, 6929, 5, contactIP, 4672)

	resp, err := wire.BootstrapRespFromBytes(body)
	if err != nil {
		t.Fatalf("BootstrapRespFromBytes: %v", err)
	}
	if err := backend.handleBootstrapResp(resp, addr, time.Unix(1700000000, 0)); err != nil {
		t.Fatalf("handleBootstrapResp: %v", err)
	}

	// the source peer is keyed on the datagram's actual source port.
	wasNew, _, err := backend.Store.UpsertPeer(KadIDString(4, 0), "1.2.3.4", 4242)
	if err != nil {
		t.Fatalf("UpsertPeer: %v", err)
	}
	if wasNew {
		t.Error("source peer (kad id, source ip, source port) was not recorded")
	}
}

func TestHandlePacketIgnoresNonBootstrapRespOpcode(t *testing.T) {
	backend := newTestBackend(t)
	addr := &net.UDPAddr{IP: net.ParseIP("203.0.113.9"), Port: 5000}

	raw := []byte{byte(wire.ProtoKademliaHeader), byte(wire.OpPing)}
	if err := backend.handlePacket(raw, addr, time.Now()); err != nil {
		t.Fatalf("handlePacket: %v", err)
	}

	stream, err := backend.Store.Peers()
	if err != nil {
		t.Fatalf("Peers: %v", err)
	}
	defer stream.Close()
	if stream.Next() {
		t.Error("handlePacket recorded a peer for an unhandled opcode")
	}
}

func TestFormatIPv4MatchesDottedQuadOrder(t *testing.T) {
	v := uint32(190) | uint32(215)<<8 | uint32(228)<<16 | uint32(231)<<24
	if got, want := formatIPv4(v), "190.215.228.231"; got != want {
		t.Errorf("formatIPv4(%d) = %q, want %q", v, got, want)
	}
}
