package cmd

import (
	"fmt"
	"sort"

	"github.com/kris-hansen/flowctl/utils/resources"
	"github.com/spf13/cobra"
)

var resourcesJobName string

var resourcesCmd = &cobra.Command{
	Use:   "resources [path]",
	Short: "Print a job's effective resources from a resource file",
	Long: `Resources loads a YAML or JSON resource file and prints the effective
option map for --job (the __default__ section merged with that job's own
entry, if any). With no path, it prints the built-in defaults
(__default__.threads auto-detected from the local CPU count).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rr *resources.RootResources
		if len(args) == 1 {
			loaded, err := resources.Read(args[0])
			if err != nil {
				return err
			}
			rr = loaded
		} else {
			rr = resources.Empty()
		}

		effective := rr.Lookup(resourcesJobName)
		keys := make([]string, 0, len(effective))
		for k := range effective {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "effective resources for job %q:\n", resourcesJobName)
		for _, k := range keys {
			fmt.Fprintf(out, "  %s: %v\n", k, effective[k])
		}
		return nil
	},
}

func init() {
	resourcesCmd.Flags().StringVar(&resourcesJobName, "job", "__default__", "job name to resolve resources for")
}
