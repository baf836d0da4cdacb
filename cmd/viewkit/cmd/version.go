package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		switch versionFormat {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]string{
				"version":   Version,
				"buildTime": BuildTime,
				"goVersion": runtime.Version(),
				"platform":  runtime.GOOS + "/" + runtime.GOARCH,
			})
		case "text":
			fmt.Fprintf(cmd.OutOrStdout(), "viewkit version %s (built %s, %s %s/%s)\n",
				Version, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		default:
			return fmt.Errorf("unsupported format: %s (supported: text, json)", versionFormat)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
}
