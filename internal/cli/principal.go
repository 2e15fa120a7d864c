package cli

import (
	"github.com/spf13/cobra"

	jwttoken "coursegate/internal/jwt_token"
	id "coursegate/pkg/domain"
)

type principalFlags struct {
	subject  string
	email    string
	name     string
	verified bool
}

func (p *principalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.subject, "subject", "", "identity provider subject to sign in as")
	cmd.Flags().StringVar(&p.email, "email", "", "email carried in the ID token")
	cmd.Flags().StringVar(&p.name, "name", "", "display name carried in the ID token")
	cmd.Flags().BoolVar(&p.verified, "verified", false, "mark the email as verified")
	_ = cmd.MarkFlagRequired("subject")
}

func (p *principalFlags) principal() (jwttoken.Principal, error) {
	subject, err := id.ParseSubjectID(p.subject)
	if err != nil {
		return jwttoken.Principal{}, err
	}
	return jwttoken.Principal{
		SubjectID:     subject,
		Email:         p.email,
		EmailVerified: p.verified,
		Name:          p.name,
	}, nil
}
