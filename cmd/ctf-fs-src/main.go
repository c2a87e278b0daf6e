// Command ctf-fs-src discovers CTF trace directories under a filesystem
// root and prints them as JSON. It validates a source component's
// configuration and topology without decoding any stream file, since the
// binary packet codec is an out-of-scope external collaborator (see
// ctf/ctfio) that a real deployment supplies separately.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/c360/ctffs/ctf/discovery"
)

func main() {
	path := flag.String("path", "", "root directory to discover CTF traces under")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: ctf-fs-src -path <root>")
		os.Exit(2)
	}

	traces, err := discovery.Discover(*path, nil)
	if err != nil {
		slog.Error("discovery failed", "error", err, "path", *path)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(traces); err != nil {
		slog.Error("encode result", "error", err)
		os.Exit(1)
	}
}
