package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"chat-relay/storage"
)

// Standalone viewer for the client-side download journal.
// Prints the most recent received files, newest first.
func main() {
	dbPath := flag.String("db", "index", "Path to the badger journal")
	limit := flag.Int("limit", 0, "Maximum number of entries (0 = all)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	index := storage.NewReceivedIndex(db, logs.GetLoggerFromString("WARN"))
	files, err := index.List(*limit)
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Received", "Author", "Filename", "Size", "Mime Type", "Path"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, f := range files {
		table.Append([]string{
			f.At.Format("2006-01-02 15:04:05"),
			f.Author,
			f.Filename,
			fmt.Sprintf("%d B", f.Size),
			f.MimeType,
			f.Path,
		})
	}

	table.Render()
}

func openDB(path string) (*badger.DB, error) {
	// BypassLockGuard allows opening while a client holds the lock
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)
	return badger.Open(opts)
}
