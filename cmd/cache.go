package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/zkoranges/flat/internal/cache"
	"github.com/zkoranges/flat/internal/units"
)

func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the compression cache",
	}
	cacheCmd.AddCommand(newCacheInfoCmd())
	cacheCmd.AddCommand(newCacheClearCmd())
	return cacheCmd
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache location, entry count and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			info, err := store.Info()
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetBorder(false)
			table.SetColumnSeparator(" ")
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.Append([]string{"Path", info.Path})
			table.Append([]string{"Entries", humanize.Comma(int64(info.Entries))})
			table.Append([]string{"Fallbacks", humanize.Comma(int64(info.Fallbacks))})
			table.Append([]string{"Size", units.FormatBytes(info.SizeBytes)})
			table.Render()
			return nil
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached compression results",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Println("Cache cleared")
			return nil
		},
	}
}

func openCache() (*cache.Store, error) {
	path, err := cache.DefaultPath()
	if err != nil {
		return nil, err
	}
	return cache.Open(path)
}
