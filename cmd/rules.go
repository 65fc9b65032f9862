package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-router/internal/registry"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Validate and print the assignment rule set",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rules, err := registry.LoadRules(cfg.Assign.RulesPath)
		if err != nil {
			return eris.Wrap(err, "load rules")
		}
		reps, err := registry.LoadRoster(cfg.Assign.RosterPath)
		if err != nil {
			return eris.Wrap(err, "load roster")
		}

		known := make(map[string]bool, len(reps))
		for _, r := range reps {
			known[r.ID] = true
		}
		for _, rule := range rules {
			if !known[rule.TargetID] && rule.TargetID != cfg.Assign.DefaultRep {
				zap.L().Warn("rule targets unknown representative",
					zap.String("rule", rule.ID),
					zap.String("target", rule.TargetID),
				)
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rules)
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
