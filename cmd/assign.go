package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-router/internal/registry"
)

var (
	assignLeadID string
	assignRepID  string
	assignPairs  string
)

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Assign leads to representatives",
	Long: "With no flags, sweeps every unassigned lead through the rule cascade. " +
		"--lead assigns one lead (to --rep, or via the cascade). " +
		"--pairs applies explicit lead/rep pairs from a JSON or YAML file.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initRouter(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		switch {
		case assignPairs != "":
			pairs, err := registry.LoadPairs(assignPairs)
			if err != nil {
				return eris.Wrap(err, "load pairs")
			}
			result := env.Engine.BulkAssign(pairs)
			zap.L().Info("bulk assignment complete",
				zap.Int("succeeded", len(result.Success)),
				zap.Int("failed", len(result.Failed)),
			)
			return enc.Encode(result)

		case assignLeadID != "" && assignRepID != "":
			if err := env.Engine.Assign(assignLeadID, assignRepID); err != nil {
				return eris.Wrapf(err, "assign lead %s", assignLeadID)
			}
			return enc.Encode(map[string]string{"lead_id": assignLeadID, "rep_id": assignRepID})

		case assignLeadID != "":
			repID, err := env.Engine.AutoAssign(assignLeadID)
			if err != nil {
				return eris.Wrapf(err, "auto-assign lead %s", assignLeadID)
			}
			return enc.Encode(map[string]string{"lead_id": assignLeadID, "rep_id": repID})

		default:
			n := env.Engine.Sweep()
			zap.L().Info("sweep complete", zap.Int("assigned", n))
			return enc.Encode(map[string]int{"assigned": n})
		}
	},
}

func init() {
	assignCmd.Flags().StringVar(&assignLeadID, "lead", "", "lead id to assign")
	assignCmd.Flags().StringVar(&assignRepID, "rep", "", "representative id (requires --lead)")
	assignCmd.Flags().StringVar(&assignPairs, "pairs", "", "path to a JSON/YAML file of lead/rep pairs")
	rootCmd.AddCommand(assignCmd)
}
