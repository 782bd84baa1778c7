package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/smazurov/stripd/internal/version"
	"github.com/spf13/cobra"
)

// CreateVersionCmd creates the version command.
func CreateVersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			info := version.Get()
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				_ = enc.Encode(info)
				return
			}
			fmt.Printf("stripd %s\n", info.Version)
			fmt.Printf("  commit: %s\n", info.GitCommit)
			fmt.Printf("  built:  %s\n", info.BuildDate)
			fmt.Printf("  go:     %s (%s)\n", info.GoVersion, info.Platform)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")

	return cmd
}
