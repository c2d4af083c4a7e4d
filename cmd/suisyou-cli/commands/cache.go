package commands

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"amazon-suisyou/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheExportCmd)
	cacheCmd.AddCommand(cacheImportCmd)
	cacheCmd.AddCommand(cacheDelCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and edit the image resolution store.",
}

func sortedKeys(entries map[string]string) []string {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every cached resolution.",
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		entries, err := store.Load(cmd.Context())
		if err != nil {
			serviceutil.Fatal("load store", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"lookup_key", "resolved_value"})
		for _, key := range sortedKeys(entries) {
			t.AppendRow(table.Row{key, entries[key]})
		}
		t.Render()
	},
}

var cacheExportCmd = &cobra.Command{
	Use:   "export <file.csv>",
	Short: "Write the store out as a two-column CSV, e.g. to move it between backends.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		entries, err := store.Load(cmd.Context())
		if err != nil {
			serviceutil.Fatal("load store", err)
		}

		file, err := os.Create(args[0])
		if err != nil {
			serviceutil.Fatal("create export file", err)
		}
		writer := csv.NewWriter(file)
		err = writer.Write([]string{"lookup_key", "resolved_value"})
		if err != nil {
			serviceutil.Fatal("write export file", err)
		}
		for _, key := range sortedKeys(entries) {
			err := writer.Write([]string{key, entries[key]})
			if err != nil {
				serviceutil.Fatal("write export file", err)
			}
		}
		writer.Flush()
		err = writer.Error()
		if err == nil {
			err = file.Close()
		}
		if err != nil {
			serviceutil.Fatal("write export file", err)
		}

		slog.Info("exported cache", "entries", len(entries), "path", args[0])
	},
}

var cacheImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Load two-column CSV rows into the store, overwriting existing keys.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		file, err := os.Open(args[0])
		if err != nil {
			serviceutil.Fatal("open import file", err)
		}
		records, err := csv.NewReader(file).ReadAll()
		file.Close()
		if err != nil {
			serviceutil.Fatal("parse import file", err)
		}
		if len(records) == 0 || len(records[0]) != 2 ||
			records[0][0] != "lookup_key" || records[0][1] != "resolved_value" {
			serviceutil.Fatal("parse import file", fmt.Errorf("expected header lookup_key,resolved_value"))
		}

		store := openStore()
		defer store.Close()

		for _, record := range records[1:] {
			err := store.Put(cmd.Context(), record[0], record[1])
			if err != nil {
				serviceutil.Fatal("write entry", err)
			}
		}
		slog.Info("imported cache entries", "entries", len(records)-1)
	},
}

var cacheDelCmd = &cobra.Command{
	Use:   "del <lookup key>...",
	Short: "Delete keys from the store so their next resolution fetches again.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		for _, key := range args {
			err := store.Delete(cmd.Context(), key)
			if err != nil {
				serviceutil.Fatal("delete key", err)
			}
		}
	},
}
