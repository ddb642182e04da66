/*
File Name:  collector.go
Package:    remule

FeedNodesDat is the import path that bridges C2 (fileformat) into C4
(store): spec.md §2 notes this is the only thing that exercises the
on-disk parsers. Grounded on original_source/collect-peers/src/main.rs's
Action::FeedNodesDat handler (read the file, parse, insert every
contact).
*/

package remule

import (
	"fmt"
	"io/ioutil"

	"github.com/emuled/remule/fileformat"
)

// FeedNodesDat parses the nodes.dat file at path and upserts every
// contact it contains, returning the count of newly inserted peers.
func (backend *Backend) FeedNodesDat(path string) (newPeers int, err error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("remule: read %q: %w", path, err)
	}

	parsed, err := fileformat.ParseNodesDat(raw)
	if err != nil {
		return 0, fmt.Errorf("remule: parse %q: %w", path, err)
	}

	for _, c := range parsed.Contacts {
		wasNew, _, err := backend.Store.UpsertPeer(KadIDString(c.KadIDLo, c.KadIDHi), formatIPv4(c.IP), c.UDPPort)
		if err != nil {
			return newPeers, fmt.Errorf("remule: upsert contact: %w", err)
		}
		if wasNew {
			newPeers++
		}
	}

	return newPeers, nil
}
