package main

import (
	"dm-chat/repositories"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/pflag"
)

// inspect dumps the users and messages of a badger store, decoded, as a table.
func main() {
	dbPath := pflag.StringP("db", "d", "./data/badger", "Path to badger DB")
	prefix := pflag.StringP("prefix", "p", "", "Prefix to scan, user:id: or msg: (default both)")
	width := pflag.IntP("width", "w", 60, "Truncate the detail column")
	pflag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer func() { _ = db.Close() }()

	prefixes := []string{repositories.UserKeyPrefix, repositories.MessageKeyPrefix}
	if *prefix != "" {
		prefixes = []string{*prefix}
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "ID", "Detail"})
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

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for _, p := range prefixes {
			prefixBytes := []byte(p)
			for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
				item := it.Item()
				key := string(item.Key())
				err := item.Value(func(v []byte) error {
					row, err := describe(key, v, *width)
					if err != nil {
						// A broken value does not stop the dump.
						fmt.Printf("Error decoding key %s: %v\n", key, err)
						return nil
					}
					table.Append(row)
					return nil
				})
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func describe(key string, value []byte, width int) ([]string, error) {
	switch {
	case strings.HasPrefix(key, repositories.UserKeyPrefix):
		u, err := repositories.DecodeUser(value)
		if err != nil {
			return nil, err
		}
		detail := fmt.Sprintf("%s %s %s setup=%t", u.Email, u.FirstName, u.LastName, u.ProfileSetup)
		return []string{key, "USER", u.CreatedAt.Format("2006-01-02 15:04:05"), shortID(u.ID), truncate(detail, width)}, nil
	case strings.HasPrefix(key, repositories.MessageKeyPrefix):
		m, err := repositories.DecodeMessage(value)
		if err != nil {
			return nil, err
		}
		detail := fmt.Sprintf("%s -> %s [%s] %s", shortID(m.SenderID), shortID(m.RecipientID), m.Type, m.Content)
		return []string{key, "MESSAGE", m.CreatedAt.Format("2006-01-02 15:04:05"), shortID(m.ID.String()), truncate(detail, width)}, nil
	default:
		return []string{key, "RAW", "", "", truncate(string(value), width)}, nil
	}
}

// shortID keeps the first 8 characters for readability.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	return string(r[:width]) + "…"
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
