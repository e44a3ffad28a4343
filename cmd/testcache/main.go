// main.go — Operator CLI for the interception cache snapshot.
// Allows: testcache stats | list | inspect <key> | clear | sweep
// Works directly on the configured snapshot backend; the interception
// layer itself is embedded in the test harness, not run from here.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/arun-kumar-codes/testcache/cmd/testcache/output"
	"github.com/arun-kumar-codes/testcache/internal/config"
	"github.com/arun-kumar-codes/testcache/internal/intercept"
	"github.com/arun-kumar-codes/testcache/internal/snapshot"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: testcache <command> [flags]\n")
	fmt.Fprintf(os.Stderr, "  Commands:\n")
	fmt.Fprintf(os.Stderr, "    stats            Print snapshot entry count and sizes\n")
	fmt.Fprintf(os.Stderr, "    list             List every persisted entry\n")
	fmt.Fprintf(os.Stderr, "    inspect <key>    Print one entry's status, headers and body size\n")
	fmt.Fprintf(os.Stderr, "    clear            Delete the persisted snapshot\n")
	fmt.Fprintf(os.Stderr, "    sweep            Remove entries older than the configured TTL\n")
	fmt.Fprintf(os.Stderr, "  Flags:\n")
	fmt.Fprintf(os.Stderr, "    -format human|json|csv    Output format (default human)\n")
	fmt.Fprintf(os.Stderr, "    -snapshot <path>          Snapshot path override\n")
	fmt.Fprintf(os.Stderr, "  Configuration comes from TESTCACHE_* environment variables\n")
	fmt.Fprintf(os.Stderr, "  (snapshot path/backend, entry TTL); see internal/config.\n")
}

// run dispatches the subcommand. Returns exit code.
func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}

	flags := flag.NewFlagSet("testcache", flag.ContinueOnError)
	snapshotPath := flags.String("snapshot", "", "Snapshot path override (default: TESTCACHE_SNAPSHOT_PATH or state dir)")
	format := flags.String("format", "human", "Output format: human, json or csv")
	if err := flags.Parse(args[1:]); err != nil {
		return 2
	}

	cfg := config.FromEnv()
	if *snapshotPath != "" {
		cfg.SnapshotPath = *snapshotPath
	}

	snap, closer, err := intercept.OpenSnapshotStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "testcache: %v\n", err)
		return 1
	}
	defer func() {
		if closer != nil {
			closer() //nolint:errcheck // best-effort handle cleanup on exit
		}
	}()

	ctx := context.Background()
	fmtr := output.GetFormatter(*format)
	switch args[0] {
	case "stats":
		return runStats(ctx, snap, fmtr)
	case "list":
		return runList(ctx, snap, fmtr)
	case "inspect":
		if flags.NArg() < 1 {
			fmt.Fprintf(os.Stderr, "Usage: testcache inspect <key>\n")
			return 2
		}
		return runInspect(ctx, snap, fmtr, flags.Arg(0))
	case "clear":
		return runClear(ctx, snap)
	case "sweep":
		return runSweep(ctx, snap, cfg.EntryTTL)
	default:
		usage()
		return 2
	}
}

func runStats(ctx context.Context, snap snapshot.Store, fmtr output.Formatter) int {
	records, err := snap.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "testcache: %v\n", err)
		return 1
	}

	var totalBody int64
	statuses := map[int]int{}
	for _, rec := range records {
		totalBody += int64(len(rec.Body))
		statuses[rec.Status]++
	}

	rep := &output.Report{
		Command: "stats",
		Fields: []output.Field{
			{Name: "entries", Value: strconv.Itoa(len(records))},
			{Name: "body bytes", Value: strconv.FormatInt(totalBody, 10)},
		},
	}
	codes := make([]int, 0, len(statuses))
	for code := range statuses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		rep.Fields = append(rep.Fields, output.Field{
			Name:  fmt.Sprintf("status %d", code),
			Value: strconv.Itoa(statuses[code]),
		})
	}
	return emit(fmtr, rep)
}

func runList(ctx context.Context, snap snapshot.Store, fmtr output.Formatter) int {
	records, err := snap.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "testcache: %v\n", err)
		return 1
	}

	rep := &output.Report{Command: "list"}
	for key, rec := range records {
		rep.Rows = append(rep.Rows, output.Row{
			Key:        key,
			Status:     rec.Status,
			BodyBytes:  len(rec.Body),
			LastAccess: rec.LastAccess,
		})
	}
	sort.Slice(rep.Rows, func(i, j int) bool { return rep.Rows[i].Key < rep.Rows[j].Key })
	return emit(fmtr, rep)
}

func runInspect(ctx context.Context, snap snapshot.Store, fmtr output.Formatter, key string) int {
	records, err := snap.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "testcache: %v\n", err)
		return 1
	}
	rec, ok := records[key]
	if !ok {
		fmt.Fprintf(os.Stderr, "testcache: no entry for key %q\n", key)
		return 1
	}

	rep := &output.Report{
		Command: "inspect",
		Fields: []output.Field{
			{Name: "key", Value: key},
			{Name: "status", Value: strconv.Itoa(rec.Status)},
			{Name: "body bytes", Value: strconv.Itoa(len(rec.Body))},
			{Name: "last access", Value: rec.LastAccess.Format(time.RFC3339)},
		},
	}
	names := make([]string, 0, len(rec.Headers))
	for name := range rec.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, value := range rec.Headers[name] {
			rep.Fields = append(rep.Fields, output.Field{
				Name:  "header " + name,
				Value: value,
			})
		}
	}
	return emit(fmtr, rep)
}

func runClear(ctx context.Context, snap snapshot.Store) int {
	if err := snap.Clear(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "testcache: %v\n", err)
		return 1
	}
	fmt.Println("snapshot cleared")
	return 0
}

func runSweep(ctx context.Context, snap snapshot.Store, ttl time.Duration) int {
	if ttl <= 0 {
		fmt.Fprintf(os.Stderr, "testcache: sweep needs a positive %s\n", config.EnvEntryTTL)
		return 2
	}
	records, err := snap.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "testcache: %v\n", err)
		return 1
	}

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for key, rec := range records {
		if !rec.LastAccess.After(cutoff) {
			delete(records, key)
			removed++
		}
	}
	if removed == 0 {
		fmt.Println("nothing expired")
		return 0
	}
	if err := snap.Save(ctx, records); err != nil {
		fmt.Fprintf(os.Stderr, "testcache: %v\n", err)
		return 1
	}
	fmt.Printf("removed %d expired entries, %d remain\n", removed, len(records))
	return 0
}

func emit(fmtr output.Formatter, rep *output.Report) int {
	if err := fmtr.Format(os.Stdout, rep); err != nil {
		fmt.Fprintf(os.Stderr, "testcache: %v\n", err)
		return 1
	}
	return 0
}
