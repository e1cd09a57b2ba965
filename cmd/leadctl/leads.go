package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hoclconnect/leads/internal/domain"
	"github.com/hoclconnect/leads/internal/infra/client"
)

func (g *globals) leadsClient() *client.LeadsClient {
	return client.NewLeadsClient(&http.Client{Timeout: g.timeout}, g.apiURL, g.token)
}

func (g *globals) requireToken() error {
	if g.token == "" {
		return errors.New("no admin token: pass --token, set LEADCTL_TOKEN or run 'leadctl login'")
	}
	return nil
}

func newLoginCmd(g *globals) *cobra.Command {
	var req domain.TokenRequest

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange admin credentials for an access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := g.leadsClient().IssueToken(cmd.Context(), &req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok.AccessToken)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires in %ds\n", tok.ExpiresIn)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Username, "username", "admin", "Admin username")
	cmd.Flags().StringVar(&req.Password, "password", "", "Admin password (required)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLeadsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Read captured leads (admin)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return g.requireToken()
		},
	}
	cmd.AddCommand(newLeadsListCmd(g), newLeadsGetCmd(g))
	return cmd
}

func newLeadsListCmd(g *globals) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leads, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			leads, err := g.leadsClient().ListLeads(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, leads)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tINTENT\tINDUSTRY\tSCORE\tSTATUS\tEMAIL")
			for _, l := range leads {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
					l.ID, l.CreatedAt.Format("2006-01-02 15:04"), l.Intent, l.Industry,
					l.Score, l.Status, domain.Deref(l.Email))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d leads\n", len(leads))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON array")
	return cmd
}

func newLeadsGetCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one lead as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lead, err := g.leadsClient().GetLead(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), lead)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
