package main

import (
	"fmt"
	"log"
	"os"

	"pair-chat/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/pflag"
)

func main() {
	dbPath := pflag.String("db", "./data/badger", "Path to badger DB")
	prefix := pflag.String("prefix", "session:", "Prefix to scan: conn:, session:, sidx:, msg:")
	limit := pflag.Int("limit", 0, "Maximum rows, 0 for all")
	pflag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "At", "Owner", "Detail"})
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

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			if *limit > 0 && count == *limit {
				break
			}
			item := it.Item()
			key := string(item.KeyCopy(nil))
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			row, err := repositories.Describe(key, value)
			if err != nil {
				// Keep going, one corrupted entry should not hide the others.
				fmt.Printf("Error decoding key %s: %v\n", key, err)
				continue
			}
			table.Append([]string{row.Key, row.Type, row.At, row.Owner, row.Detail})
			count++
		}
		return nil
	})
	if err != nil {
		log.Fatal("Error while reading Badger: ", err)
	}

	table.Render()
	fmt.Printf("\n%d entries under %q\n", count, *prefix)
}
