package commands

import (
	"amazon-suisyou/internal/sku"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <identifier>...",
	Short: "Derive lookup keys from merchant identifiers and resolve their product images.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		resolver, cleanup := newResolver(cmd.Context())
		defer cleanup()

		t := newTable()
		t.AppendHeader(table.Row{"identifier", "code", "source", "image"})
		for _, raw := range args {
			key, ok := sku.Derive(raw)
			if !ok {
				t.AppendRow(table.Row{raw, "", "no code", ""})
				continue
			}

			res := resolver.Resolve(cmd.Context(), key)
			source := "fetched"
			if res.CacheHit {
				source = "cached"
			}
			image := res.ImageURL
			if image == "" {
				image = "none"
			}
			t.AppendRow(table.Row{raw, key, source, image})
		}
		t.Render()
	},
}
