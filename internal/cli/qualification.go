package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/atanenl/portabase-go/internal/app"
	"github.com/atanenl/portabase-go/internal/logger"
)

type submitFlags struct {
	host               string
	typ                string
	date               string
	expireDate         string
	attachment         string
	comments           string
	lrkp               string
	actionPlan         string
	actionPlanDate     string
	actionPlanExecuted bool
	force              bool
}

func newQualificationCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "qualification",
		Aliases: []string{"kwalificatie"},
		Short:   "Upload qualifications for a host",
	}
	cmd.AddCommand(newSubmitCmd(flags))
	cmd.AddCommand(newTypesCmd(flags))
	return cmd
}

func newSubmitCmd(flags *rootFlags) *cobra.Command {
	sf := &submitFlags{}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Upload a qualification document",
		Long: "Upload a qualification document for a host. The same submission is refused\n" +
			"while its receipt is in the local journal; pass --force to send it again.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := sf.request(cmd)
			return flags.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Submit(ctx, req)
			})
		},
	}

	sf.bind(cmd.Flags())
	_ = cmd.MarkFlagRequired("host")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("attachment")
	return cmd
}

func (sf *submitFlags) bind(f *pflag.FlagSet) {
	f.StringVar(&sf.host, "host", "", "Host id (required)")
	f.StringVar(&sf.typ, "type", "", "Qualification type: ehbo, psp, idk, rbw, vog or rie (required)")
	f.StringVar(&sf.date, "date", "", "Issue date")
	f.StringVar(&sf.expireDate, "expire-date", "", "Expiry date")
	f.StringVar(&sf.attachment, "attachment", "", "Path of the document to upload (required)")
	f.StringVar(&sf.comments, "comments", "", "Free text comments")
	f.StringVar(&sf.lrkp, "lrkp", "", "LRKP registration number (required for rie)")
	f.StringVar(&sf.actionPlan, "action-plan", "", "Path of the action plan document (rie)")
	f.StringVar(&sf.actionPlanDate, "action-plan-date", "", "Action plan approval date (rie)")
	f.BoolVar(&sf.actionPlanExecuted, "action-plan-executed", false, "Mark the action plan as executed (rie)")
	f.BoolVar(&sf.force, "force", false, "Submit even if the journal holds the same submission")
}

// request maps flags to a SubmitRequest. Optional text fields are only set
// when the flag was given, so an explicit empty value is still sent.
func (sf *submitFlags) request(cmd *cobra.Command) app.SubmitRequest {
	optional := func(name, value string) *string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v := value
		return &v
	}
	return app.SubmitRequest{
		HostID:                 sf.host,
		Type:                   sf.typ,
		Date:                   sf.date,
		ExpireDate:             sf.expireDate,
		AttachmentPath:         sf.attachment,
		Comments:               optional("comments", sf.comments),
		LRKPNumber:             optional("lrkp", sf.lrkp),
		ActionPlanApprovalDate: optional("action-plan-date", sf.actionPlanDate),
		ActionPlanPath:         sf.actionPlan,
		ActionPlanExecuted:     sf.actionPlanExecuted,
		Force:                  sf.force,
	}
}

func newTypesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List qualification type codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}
			defer logger.Close()

			renderer, err := app.NewRenderer(cfg.Output, cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("init renderer: %w", err)
			}
			return app.PrintQualificationTypes(renderer)
		},
	}
}
