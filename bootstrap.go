/*
File Name:  bootstrap.go
Package:    remule

Paced, oldest-sent-first sender loop. Grounded on the teacher's
Bootstrap.go phased-retry loop style and bit-exact against
original_source/collect-peers/src/main.rs's bootstrap(): stream peers(),
send a BootstrapReq to each, mark it sent, then wait one pacing tick
before the next. Unlike the original's 2-second interval.tick(), the
pacing interval here is spec.md's documented 1 second (DESIGN.md notes
spec.md is authoritative where the two disagree).
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

// bootstrapLoop repeatedly sweeps the store's peer stream oldest-sent-
// first, sending a BootstrapReq to each and pacing one tick between
// sends. It restarts from the top of the stream whenever it runs dry.
func (backend *Backend) bootstrapLoop(ctx context.Context) {
	req := wire.EncodeBootstrapReq()
	pace := backend.Config.PaceInterval()

	for {
		if ctx.Err() != nil {
			return
		}

		stream, err := backend.Store.Peers()
		if err != nil {
			log.Printf("remule: bootstrap: open peer stream: %v", err)
			time.Sleep(time.Second)
			continue
		}

		sentAny := backend.sweepPeers(ctx, stream, req, pace)
		stream.Close()

		if !sentAny {
			// empty store: avoid a hot loop re-opening the stream.
			time.Sleep(pace)
		}
	}
}

// sweepPeers sends req to every peer yielded by stream, pacing between
// sends, and reports whether it sent at least one datagram.
func (backend *Backend) sweepPeers(ctx context.Context, stream *store.PeerStream, req []byte, pace time.Duration) bool {
	sentAny := false

	for stream.Next() {
		if ctx.Err() != nil {
			return sentAny
		}

		peer, err := stream.Scan()
		if err != nil {
			log.Printf("remule: bootstrap: scan peer row: %v", err)
			continue
		}

		ip := net.ParseIP(peer.IP)
		if ip == nil {
			log.Printf("remule: bootstrap: peer %d has unparseable ip %q, skipping", peer.StoreID, peer.IP)
			continue
		}

		if err := backend.Net.SendTo(ip, peer.UDPPort, req); err != nil {
			log.Printf("remule: bootstrap: send to %s:%d: %v", peer.IP, peer.UDPPort, err)
			time.Sleep(time.Second)
			continue
		}

		if err := backend.Store.MarkPeerSent(peer.StoreID); err != nil {
			log.Printf("remule: bootstrap: mark peer %d sent: %v", peer.StoreID, err)
		}

		sentAny = true
		time.Sleep(pace)
	}

	if err := stream.Err(); err != nil {
		log.Printf("remule: bootstrap: peer stream: %v", err)
	}
	return sentAny
}
