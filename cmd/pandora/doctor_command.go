package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pandora/internal/preflight"
)

type doctorPayload struct {
	Checks []doctorCheck `json:"checks"`
	Ready  bool          `json:"ready"`
}

type doctorCheck struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Required bool   `json:"required"`
	Detail   string `json:"detail"`
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check renderer binaries and directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.All(cfg)
			_, failed := preflight.FirstFailure(results)

			if asJSON {
				payload := doctorPayload{Ready: !failed, Checks: make([]doctorCheck, 0, len(results))}
				for _, r := range results {
					payload.Checks = append(payload.Checks, doctorCheck(r))
				}
				return writeJSON(cmd, payload)
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "ok"
				if !r.Passed {
					status = "missing"
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"CHECK", "STATUS", "DETAIL"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			if failed {
				fmt.Fprintln(out, "Environment not ready; fix the checks above before building.")
			} else {
				fmt.Fprintln(out, "Environment ready.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}
