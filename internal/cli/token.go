package cli

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"coursegate/internal/identity"
)

type tokenOutput struct {
	IDToken   string    `json:"id_token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newTokenCmd(a *app) *cobra.Command {
	var pf principalFlags
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development ID token",
		Long: `Sign in as the given subject and print a bearer ID token for the
coursegate backend.

Example:
  sessionctl token --subject uid-1 --email ada@example.com --verified`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			principal, err := pf.principal()
			if err != nil {
				return err
			}
			provider := newProvider(a.cfg, a.logger())
			if _, err := provider.SignIn(cmd.Context(), principal); err != nil {
				return err
			}
			src, err := provider.TokenSource()
			if err != nil {
				return err
			}
			tok, err := src.Token()
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tokenOutput{
				IDToken:   identity.IDToken(tok),
				TokenType: tok.Type(),
				ExpiresAt: tok.Expiry.UTC(),
			})
		},
	}
	pf.register(cmd)
	return cmd
}
