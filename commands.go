/*
File Name:  commands.go
Package:    remule

Packet handler dispatch, grounded on the teacher's Commands.go
announcement/response handler-method style and bit-exact against
original_source/collect-peers/src/main.rs's process_rx/handle_packet/
handle_bootstrap_resp trio. Per spec.md §4.5.1, only BootstrapResp is
fully handled; every other opcode is logged and discarded.
*/

package remule

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/emuled/remule/store"
	"github.com/emuled/remule/wire"
)

// receiveLoop reads datagrams off the bound socket forever, dispatching
// each to handlePacket. Socket errors back off 1s and retry; handler
// errors are logged but never tear down the loop (spec.md §4.5.1/§7).
func (backend *Backend) receiveLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		raw, addr, err := backend.Net.RecvFrom()
		if err != nil {
			log.Printf("remule: receive: %v", err)
			time.Sleep(time.Second)
			continue
		}

		recvTime := time.Now()
		if err := backend.handlePacket(raw, addr, recvTime); err != nil {
			log.Printf("remule: %s: handle packet: %v", addr, err)
		}
	}
}

// handlePacket decodes raw as a UDP proto/Kad packet and dispatches on
// opcode. Only BootstrapResp is acted on; every other opcode (and every
// non-Kad proto byte) is logged and ignored.
func (backend *Backend) handlePacket(raw []byte, addr *net.UDPAddr, recvTime time.Time) error {
	raw = wire.TryDeobfuscate(raw, backend.KeyProvider, addr.String())

	packet, err := wire.FromBytes(raw)
	if err != nil {
		return err
	}

	if !packet.IsKad() {
		Debugf("remule: %s: non-kad proto 0x%02x, ignoring", addr, packet.Proto)
		return nil
	}

	kadPacket, err := wire.KadPacketFromBytes(packet.Payload)
	if err != nil {
		return err
	}

	switch kadPacket.Opcode {
	case wire.OpBootstrapResp:
		resp, err := wire.BootstrapRespFromBytes(kadPacket.Body)
		if err != nil {
			return err
		}
		return backend.handleBootstrapResp(resp, addr, recvTime)
	default:
		Debugf("remule: %s: unhandled kad opcode 0x%02x, ignoring", addr, byte(kadPacket.Opcode))
		return nil
	}
}

// handleBootstrapResp records the reporter and every contact it named as
// one report, exactly per spec.md §4.5.1.
func (backend *Backend) handleBootstrapResp(resp *wire.BootstrapResp, addr *net.UDPAddr, recvTime time.Time) error {
	// validate the contact block up front so a malformed datagram is
	// discarded before any row is written.
	contacts, err := resp.Contacts()
	if err != nil {
		return err
	}

	if resp.ClientPort != uint16(addr.Port) {
		log.Printf("remule: %s: reported client port %d differs from source port", addr, resp.ClientPort)
	}

	sourceKadID := KadIDString(resp.ClientIDLo, resp.ClientIDHi)
	_, peerSID, err := backend.Store.UpsertPeer(sourceKadID, addr.IP.String(), uint16(addr.Port))
	if err != nil {
		return err
	}
	backend.Routing.Insert(KadIDBytes(resp.ClientIDLo, resp.ClientIDHi), recvTime)

	reportID, err := backend.Store.InsertReport(peerSID, recvTime.UnixMilli())
	if err != nil {
		return err
	}

	// the reporter's self-contact carries the udp port it reported for
	// itself, not the source port the datagram arrived from.
	if _, err := backend.Store.InsertReportContact(reportID, store.ReportedContact{
		KadID:   sourceKadID,
		IP:      addr.IP.String(),
		UDPPort: resp.ClientPort,
	}); err != nil {
		return err
	}

	newCount := 0
	for _, c := range contacts {
		tcpPort := c.TCPPort
		version := c.ContactVersion
		wasNew, err := backend.Store.InsertReportContact(reportID, store.ReportedContact{
			KadID:          KadIDString(c.IDLo, c.IDHi),
			IP:             formatIPv4(c.IP),
			UDPPort:        c.UDPPort,
			TCPPort:        &tcpPort,
			ContactVersion: &version,
		})
		if err != nil {
			log.Printf("remule: %s: insert contact: %v", addr, err)
			continue
		}
		if wasNew {
			newCount++
		}
		backend.Routing.Insert(KadIDBytes(c.IDLo, c.IDHi), recvTime)
	}

	log.Printf("remule: %s: bootstrap resp: %d/%d new contacts, %d buckets occupied",
		addr, newCount, len(contacts), len(backend.Routing.BucketCounts()))
	return nil
}

// formatIPv4 renders a little-endian-wire uint32 IPv4 address (as decoded
// by wire.Cursor.IPv4) in dotted-quad form.
func formatIPv4(v uint32) string {
	return net.IPv4(byte(v), byte(v>>8), byte(v>>16), byte(v>>24)).String()
}
