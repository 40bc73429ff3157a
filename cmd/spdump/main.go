package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/tuannm99/slotdb/internal"
	"github.com/tuannm99/slotdb/internal/bufferpool"
	"github.com/tuannm99/slotdb/internal/slotted"
)

// spdump opens a record file, prints every live record, and reports the
// buffer pool statistics for the scan.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	filePath := flag.String("file", "", "record file to dump")
	flag.Parse()

	if *filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := internal.LoadConfig(*cfgPath)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	policy, err := bufferpool.ParsePolicy(cfg.Pool.Policy)
	if err != nil {
		log.WithError(err).Fatal("parse policy")
	}

	pool := bufferpool.NewPool(cfg.Pool.Capacity, policy)
	rf, err := slotted.Open(*filePath, pool)
	if err != nil {
		log.WithError(err).Fatal("open record file")
	}

	scan := rf.OpenScan()
	count := 0
	for {
		rec, rid, err := scan.Next()
		if errors.Is(err, slotted.ErrEndOfScan) {
			break
		}
		if err != nil {
			log.WithError(err).Fatal("scan")
		}
		fmt.Printf("(%d,%d)\tlen=%d\t%s\n", rid.Page, rid.Slot, len(rec), preview(rec))
		count++
	}
	scan.Close()

	stats := pool.Stats()
	fmt.Printf("\n%d records in %d pages\n", count, rf.PageCount())
	fmt.Printf("logical reads=%d writes=%d | physical reads=%d writes=%d | hits=%d misses=%d\n",
		stats.LogicalReads, stats.LogicalWrites,
		stats.PhysicalReads, stats.PhysicalWrites,
		stats.PageHits, stats.PageMisses)

	if cfg.Debug {
		fmt.Print(pool.DebugString())
	}

	if err := rf.Close(); err != nil {
		log.WithError(err).Fatal("close record file")
	}
}

const maxPreview = 32

func preview(rec []byte) string {
	b := rec
	if len(b) > maxPreview {
		b = b[:maxPreview]
	}
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 0x20 && c < 0x7f {
			out[i] = c
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}
