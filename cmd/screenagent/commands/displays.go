package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bryanchriswhite/screenagent/internal/capture"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var displaysCmd = &cobra.Command{
	Use:   "displays",
	Short: "List displays",
	Long: `List the displays visible to the capture backend and mark the one
screenagent treats as primary.`,
	Example: `  # List displays in table format (default)
  screenagent displays

  # List displays in JSON format using the portable backend
  screenagent displays --format json --backend screenshot`,
	RunE: runDisplays,
}

var displaysFormat string

func init() {
	rootCmd.AddCommand(displaysCmd)

	displaysCmd.Flags().StringVarP(&displaysFormat, "format", "f", "table", "output format (table or json)")
}

func runDisplays(cmd *cobra.Command, args []string) error {
	router, err := capture.NewRouter(viper.GetString("backend"))
	if err != nil {
		return err
	}
	if err := router.Start(); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	defer router.Stop()

	displays, err := router.Displays()
	if err != nil {
		return fmt.Errorf("failed to list displays: %w", err)
	}
	primary, hasPrimary := capture.Primary(displays)

	switch displaysFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(displays)
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tGEOMETRY\tPRIMARY")
		for _, d := range displays {
			mark := ""
			if hasPrimary && d.ID == primary.ID {
				mark = "*"
			}
			fmt.Fprintf(w, "%d\t%s\t%dx%d+%d+%d\t%s\n",
				d.ID, d.Name, d.Bounds.Dx(), d.Bounds.Dy(), d.Bounds.Min.X, d.Bounds.Min.Y, mark)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", displaysFormat)
	}
}
