// Command hvinstall is the unprivileged packaging/inspection CLI: it
// builds the protected-set table a hvstub installation is verified
// against, and can run the Installation Verifier against an existing
// installation directly. It never runs setuid and never touches
// ProcessIdentity's privileged fields.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"hvlaunch.dev/hvlaunch/internal/hv/hvos"
	"hvlaunch.dev/hvlaunch/internal/hv/verify"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("hvinstall: ")

	if len(os.Args) < 2 {
		log.Fatal("usage: hvinstall scan <app-bin-dir> | hvinstall verify [argv0] < table.json")
	}

	switch os.Args[1] {
	case "scan":
		cmdScan(os.Args[2:])
	case "verify":
		cmdVerify(os.Args[2:])
	default:
		log.Fatalf("unknown subcommand %q", os.Args[1])
	}
}

// cmdScan walks appBinDir and prints the protected-set table as JSON,
// grounded on the teacher's cmd/fpkg packaging-step idiom of
// precomputing ownership/mode expectations ahead of an install.
func cmdScan(args []string) {
	if len(args) != 1 {
		log.Fatal("usage: hvinstall scan <app-bin-dir>")
	}
	dir := args[0]

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatalf("cannot read %q: %v", dir, err)
	}

	var records verify.Records
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			log.Fatalf("cannot stat %q: %v", e.Name(), err)
		}
		uid, gid := ownerOf(info)
		records = append(records, verify.Record{
			Path:        dir + "/" + e.Name(),
			RequiredUID: uid,
			RequiredGID: gid,
		})
	}

	if err := json.NewEncoder(os.Stdout).Encode(records); err != nil {
		log.Fatalf("cannot encode protected-set table: %v", err)
	}
}

// cmdVerify loads a protected-set table from stdin (as produced by
// scan) and runs verify.All against it, exiting non-zero on the first
// Integrity failure.
func cmdVerify(args []string) {
	var records verify.Records
	if err := json.NewDecoder(os.Stdin).Decode(&records); err != nil {
		log.Fatalf("cannot decode protected-set table from stdin: %v", err)
	}

	var argv0 string
	if len(args) == 1 {
		argv0 = args[0]
	}

	if err := verify.All(hvos.Std{}, records, nil, argv0); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("ok")
}
