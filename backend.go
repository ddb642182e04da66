/*
File Name:  backend.go
Package:    remule

Grounded on the teacher's Peernet.go Init/Connect sequencing style,
trimmed to just the subsystems SPEC_FULL.md names: config, log, store,
network, routing scaffold. The blockchain/warehouse/search/mobile fields
the teacher's own Backend carries have no SPEC_FULL.md home and are not
reproduced (see DESIGN.md "Deleted teacher modules").
*/

package remule

import (
	"context"
	"fmt"

	"github.com/emuled/remule/routing"
	"github.com/emuled/remule/store"
	"github.com/emuled/remule/wire"
)

// Backend is a running instance of the crawler: its config, store,
// bound socket, and routing scaffold.
type Backend struct {
	Config  *Config
	Store   *store.Store
	Net     *Network
	Routing *routing.Table

	// LocalIDLo/Hi is this process's own Kad ID, used only to root the
	// routing scaffold's XOR-distance buckets; it never answers requests
	// under this identity.
	LocalIDLo, LocalIDHi uint64

	// KeyProvider supplies candidate RC4 keys for deobfuscating inbound
	// datagrams whose leading byte isn't a recognized proto. Nil means no
	// obfuscated traffic is accepted, only plaintext Kad packets.
	KeyProvider wire.KeyProvider
}

// Init loads configuration, initializes logging, opens the store, and
// returns a Backend ready to either FeedNodesDat or Connect. The returned
// status is an ExitX code; anything other than ExitSuccess is fatal.
func Init(configFilename string, localIDLo, localIDHi uint64) (backend *Backend, status int, err error) {
	cfg, err := LoadConfig(configFilename)
	if err != nil {
		return nil, ExitErrorConfig, err
	}
	return InitWithConfig(cfg, localIDLo, localIDHi)
}

// InitWithConfig is Init's store/log-opening half, taking an
// already-loaded (and possibly CLI-overridden) Config directly. The
// external CLI collaborator uses this to override DBUri/BindAddr with
// its own positional arguments before the store is opened.
func InitWithConfig(cfg *Config, localIDLo, localIDHi uint64) (backend *Backend, status int, err error) {
	if err := InitLog(cfg); err != nil {
		return nil, ExitErrorConfig, err
	}
	SetLogVerbosity(cfg.LogVerbosity)

	st, err := store.Open(cfg.DBUri)
	if err != nil {
		return nil, ExitErrorStoreOpen, fmt.Errorf("remule: open store: %w", err)
	}

	backend = &Backend{
		Config:    cfg,
		Store:     st,
		Routing:   routing.NewTable(KadIDBytes(localIDLo, localIDHi)),
		LocalIDLo: localIDLo,
		LocalIDHi: localIDHi,
		// the local Kad ID is the only secret this crawler knows; it's
		// offered as the sole deobfuscation candidate (spec.md §9 option a).
		KeyProvider: wire.StaticKeyProvider{Seeds: [][]byte{KadIDBytes(localIDLo, localIDHi)}},
	}
	return backend, ExitSuccess, nil
}

// Connect binds the UDP socket and starts the sender and receiver loops.
// Callers should provide a cancellable context so the cooperative
// shutdown described in spec.md §4.5.3 can take effect.
func (backend *Backend) Connect(ctx context.Context) error {
	net, err := OpenNetwork(backend.Config.BindAddr)
	if err != nil {
		return fmt.Errorf("remule: bind socket: %w", err)
	}
	backend.Net = net

	go backend.bootstrapLoop(ctx)
	go backend.receiveLoop(ctx)
	return nil
}
