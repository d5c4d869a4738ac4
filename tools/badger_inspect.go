package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"pulse-lab/domain/poll"
	"pulse-lab/infrastructure/storage"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

// Dumps the poll keyspace of a stopped (or running) server:
//
//	go run tools/badger_inspect.go -db ./data/pulse -session AB12X9 -kind tally
func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	session := flag.String("session", "", "Only records of this session code")
	kind := flag.String("kind", "", "Only one record kind: session, prompt, slide, tally or mark")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLogger(nil))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	prefix := ""
	if *session != "" {
		prefix = storage.SessionPrefix(poll.SessionID(strings.ToUpper(*session)))
	}

	var rows [][]string
	err = storage.Scan(db, prefix, func(rec storage.Record) error {
		if *kind == "" || strings.EqualFold(rec.Kind, *kind) {
			rows = append(rows, []string{rec.Key, rec.Kind, rec.Session, rec.Slide, rec.Detail})
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Session", "Slide", "Detail"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetHeaderLine(false)
	table.AppendBulk(rows)
	table.Render()
	fmt.Printf("%d records\n", len(rows))
}
