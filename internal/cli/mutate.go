package cli

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/staffdash/internal/models"
	"github.com/raphaelgruber/staffdash/internal/reconcile"
	"github.com/spf13/cobra"
)

var mutateCmd = &cobra.Command{
	Use:   "mutate <kind> <id> <action>",
	Short: "Change the status of a record",
	Long: `Apply a status action to one record. The dashboard is updated at once
and the change is sent to the resource service; if the service rejects it
the previous status is restored.

Kinds: client, worker, job, assignment, timesheet, document, payment, referral.

Examples:
  staffdash mutate assignment a-17 activate
  staffdash mutate job j-3 close
  staffdash mutate document d-9 expire`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutate(cmd, args[0], args[1], reconcile.ParseAction(args[2]))
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve <kind> <id>",
	Short: "Approve an assignment, timesheet, or document",
	Example: `  staffdash approve timesheet t-204
  staffdash approve assignment a-17`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutate(cmd, args[0], args[1], reconcile.ActionApprove)
	},
}

var rejectCmd = &cobra.Command{
	Use:     "reject <kind> <id>",
	Short:   "Reject a timesheet or document",
	Example: `  staffdash reject timesheet t-204`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutate(cmd, args[0], args[1], reconcile.ActionReject)
	},
}

func runMutate(cmd *cobra.Command, kindArg, id string, action reconcile.Action) error {
	kind := models.Kind(strings.ToLower(kindArg))
	d, _, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}

	ch, err := d.Mutate(cmd.Context(), kind, id, action)
	if err != nil {
		if reconcile.IsInvalid(err) {
			if actions := reconcile.DefaultTable.Actions(kind); len(actions) > 0 {
				return fmt.Errorf("%w (actions for %s: %s)", err, kind, joinActions(actions))
			}
		}
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, ch)
	}
	fmt.Fprintf(out, "%s %s: %s -> %s\n", kind, id, ch.From, ch.To)
	return nil
}

func joinActions(actions []reconcile.Action) string {
	s := make([]string, len(actions))
	for i, a := range actions {
		s[i] = string(a)
	}
	return strings.Join(s, ", ")
}
