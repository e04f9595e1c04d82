package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const starterConfig = `# flat configuration. Flags override these values.
# include: [go, md]      # only these extensions
# exclude: [json]        # never these extensions
# match: ["*.go"]        # only file names matching these globs
# full_match: ["*.md"]   # never compress matching files
# max_size: "1M"         # per-file size cutoff (binary suffixes)
# tokens: "100k"         # token budget (decimal suffixes)
# compress: true
# cache: true
# max_binding_len: 120   # module-level binding retention cutoff
`

func newInitCmd() *cobra.Command {
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .flat.yaml into the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing .flat.yaml")
	return initCmd
}

func runInit(force bool) error {
	const path = ".flat.yaml"
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
