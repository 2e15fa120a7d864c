package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"coursegate/internal/claims/authz"
	"coursegate/internal/claims/models"
	id "coursegate/pkg/domain"
)

var (
	allRoles       = []id.Role{id.RoleStudent, id.RoleInstructor, id.RoleAdmin}
	allPermissions = []id.Permission{
		id.PermViewCourses, id.PermEnrollCourses, id.PermCreateCourses, id.PermEditCourses,
		id.PermDeleteCourses, id.PermViewAnalytics, id.PermManageUsers, id.PermManageRoles,
	}
)

func newClaimsCmd(a *app) *cobra.Command {
	var (
		pf      principalFlags
		refresh bool
		routes  []string
	)
	cmd := &cobra.Command{
		Use:   "claims",
		Short: "Sign in, resolve claims and print the authorization predicates",
		Long: `Sign in as the given subject, resolve claims from the cache or the
backend and print the role and permission predicates they satisfy.
A subject without a server role has its profile synced once.

Examples:
  sessionctl claims --subject uid-1 --email ada@example.com
  sessionctl claims --subject uid-1 --cache sqlite --refresh
  sessionctl claims --subject uid-1 --route /courses/new --route /admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			principal, err := pf.principal()
			if err != nil {
				return err
			}
			w, err := newWorld(ctx, a.cfg, a.logger())
			if err != nil {
				return err
			}
			defer w.Close()

			session, err := w.provider.SignIn(ctx, principal)
			if err != nil {
				return err
			}
			defer func() { _ = w.provider.SignOut(ctx) }()
			src, err := w.provider.TokenSource()
			if err != nil {
				return err
			}
			tok, err := src.Token()
			if err != nil {
				return err
			}

			source := "cache"
			claims, cached := w.resolver.Cached(ctx, session)
			switch {
			case refresh:
				source = "backend (refresh)"
				claims, err = w.resolver.Refresh(ctx, session, tok)
			case !cached:
				source = "backend"
				claims, err = w.resolver.Resolve(ctx, session, tok)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := printClaims(out, session, claims, source); err != nil {
				return err
			}
			for _, route := range routes {
				decision, err := w.backend.CheckRouteAccess(ctx, tok, route)
				if err != nil {
					return err
				}
				printDecision(out, decision)
			}
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the claims cache")
	cmd.Flags().StringArrayVar(&routes, "route", nil, "check backend route access (repeatable)")
	return cmd
}

func printClaims(out io.Writer, session *models.Session, claims *models.Claims, source string) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "subject:\t%s\n", session.SubjectID)
	fmt.Fprintf(tw, "source:\t%s\n", source)
	fmt.Fprintf(tw, "role:\t%s\n", claims.Role)
	fmt.Fprintf(tw, "permissions:\t%s\n", strings.Join(claims.Permissions.Strings(), ", "))
	fmt.Fprintf(tw, "profile complete:\t%s\n", yesNo(authz.IsProfileComplete(claims)))
	fmt.Fprintf(tw, "email verified:\t%s\n", yesNo(authz.IsEmailVerified(claims)))
	fmt.Fprintln(tw)
	for _, role := range allRoles {
		fmt.Fprintf(tw, "hasRole(%s)\t%s\n", role, yesNo(authz.HasRole(claims, role)))
	}
	for _, p := range allPermissions {
		fmt.Fprintf(tw, "hasPermission(%s)\t%s\n", p, yesNo(authz.HasPermission(claims, p)))
	}
	return tw.Flush()
}

func printDecision(out io.Writer, d *models.RouteAccessDecision) {
	verdict := "allowed"
	if !d.Allowed {
		verdict = "denied: " + d.Reason
	}
	fmt.Fprintf(out, "route %s: %s\n", d.Route, verdict)
}

func yesNo(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}
