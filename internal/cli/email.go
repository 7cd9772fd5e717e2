package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pomdtr/vt/internal/api"
	"github.com/pomdtr/vt/internal/ui"
)

var emailMessage api.Email

var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Send an email from your account",
	Long: `Send an email from your account. Without --to it goes to you.

The body is read from stdin when --body is not given and stdin is not a terminal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		msg := emailMessage
		if msg.Text == "" && !ui.NewDisplayContext().StdinIsTTY {
			body, err := readStdin()
			if err != nil {
				return err
			}
			msg.Text = body
		}

		s, err := newSession()
		if err != nil {
			return err
		}
		if err := s.client.SendEmail(cmd.Context(), msg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Success("Email sent."))
		return nil
	},
}

func init() {
	emailCmd.Flags().StringVarP(&emailMessage.To, "to", "t", "", "Recipient (defaults to you)")
	emailCmd.Flags().StringVarP(&emailMessage.Subject, "subject", "s", "", "Subject")
	emailCmd.Flags().StringVarP(&emailMessage.Text, "body", "b", "", "Plain-text body")
	emailCmd.Flags().StringVar(&emailMessage.HTML, "html", "", "HTML body")
	_ = emailCmd.MarkFlagRequired("subject")
	rootCmd.AddCommand(emailCmd)
}
