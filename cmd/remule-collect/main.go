/*
File Name:  main.go
Package:    main

Thin CLI front-end, grounded on
adityasissodiya-d7024e/labs/kademlia/cmd/cli/main.go's direct stdlib
flag usage (no third-party CLI framework anywhere in the pack for a
binary this small) and on original_source/collect-peers/src/main.rs's
Opt{db_uri, action} shape. Two subcommands per spec.md §6.3, each taking
a database URI and one further argument: `feed-nodes-dat <db-uri>
<path>` and `collect <db-uri> <bind-addr>`.
*/

package main

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/emuled/remule"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	remule.SetLogVerbosity(os.Getenv("REMULE_LOG"))

	if len(args) < 1 {
		usage()
		return remule.ExitErrorConfig
	}

	switch args[0] {
	case "feed-nodes-dat":
		fs := flag.NewFlagSet("feed-nodes-dat", flag.ExitOnError)
		fs.Parse(args[1:])
		if fs.NArg() != 2 {
			fmt.Fprintln(os.Stderr, "usage: remule-collect feed-nodes-dat <db-uri> <path>")
			return remule.ExitErrorConfig
		}
		return feedNodesDat(fs.Arg(0), fs.Arg(1))

	case "collect":
		fs := flag.NewFlagSet("collect", flag.ExitOnError)
		fs.Parse(args[1:])
		if fs.NArg() != 2 {
			fmt.Fprintln(os.Stderr, "usage: remule-collect collect <db-uri> <bind-addr>")
			return remule.ExitErrorConfig
		}
		return collect(fs.Arg(0), fs.Arg(1))

	default:
		usage()
		return remule.ExitErrorConfig
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: remule-collect feed-nodes-dat <db-uri> <path> | collect <db-uri> <bind-addr>")
}

func feedNodesDat(dbURI, path string) int {
	backend, status, err := initBackend(dbURI, "")
	if status != remule.ExitSuccess {
		fmt.Fprintf(os.Stderr, "remule-collect: init: %v\n", err)
		return status
	}

	newPeers, err := backend.FeedNodesDat(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "remule-collect: feed-nodes-dat: %v\n", err)
		return remule.ExitErrorConfig
	}

	fmt.Printf("%d new peers\n", newPeers)
	return remule.ExitSuccess
}

func collect(dbURI, bindAddr string) int {
	backend, status, err := initBackend(dbURI, bindAddr)
	if status != remule.ExitSuccess {
		fmt.Fprintf(os.Stderr, "remule-collect: init: %v\n", err)
		return status
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		cancel()
	}()

	if err := backend.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "remule-collect: collect: %v\n", err)
		return remule.ExitErrorSocketBind
	}

	<-ctx.Done()
	return remule.ExitGraceful
}

// initBackend loads the ambient config (log file, verbosity, pacing),
// overrides DBUri/BindAddr with the CLI-supplied values (and LogVerbosity
// with REMULE_LOG when that variable is set), then opens the
// store against the overridden URI — matching original_source's
// db_uri-is-a-CLI-argument shape rather than a config-file field.
func initBackend(dbURI, bindAddr string) (*remule.Backend, int, error) {
	cfg, err := remule.LoadConfig("remule.yaml")
	if err != nil {
		return nil, remule.ExitErrorConfig, err
	}

	cfg.DBUri = dbURI
	if bindAddr != "" {
		cfg.BindAddr = bindAddr
	}
	if v := os.Getenv("REMULE_LOG"); v != "" {
		cfg.LogVerbosity = v
	}

	localLo, localHi := randomKadID()
	return remule.InitWithConfig(cfg, localLo, localHi)
}

// randomKadID generates a random local Kad ID used only to root this
// process's routing scaffold; it never answers requests under this
// identity.
func randomKadID() (lo, hi uint64) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, 0
	}
	return binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:])
}
