package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-router/internal/workload"
)

var workloadCmd = &cobra.Command{
	Use:   "workload [rep-id]",
	Short: "Show representative workload scores",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initRouter(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if len(args) == 1 {
			wl, err := env.Engine.Workload(args[0])
			if err != nil {
				return eris.Wrapf(err, "workload for %s", args[0])
			}
			return enc.Encode(wl)
		}

		return enc.Encode(workload.Snapshot(env.Reps, env.Engine.Leads()))
	},
}

func init() {
	rootCmd.AddCommand(workloadCmd)
}
