package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hoclconnect/leads/internal/analytics"
	"github.com/hoclconnect/leads/internal/infra/cache"
	"github.com/hoclconnect/leads/internal/intake"
	"github.com/hoclconnect/leads/internal/toast"
	"github.com/hoclconnect/leads/internal/utm"
)

func newIntakeCmd(g *globals) *cobra.Command {
	var file, landing string

	cmd := &cobra.Command{
		Use:   "intake",
		Short: "Fill in the partner-matching form and submit it",
		Long: "Walks the five intake steps interactively, or submits a YAML brief with --file.\n" +
			"--landing-url seeds the form and campaign the way a landing-page link would.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIntake(cmd, g, file, landing)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML brief to submit instead of prompting")
	cmd.Flags().StringVar(&landing, "landing-url", "", "Landing page URL carrying path/use/category/email and utm_* parameters")
	return cmd
}

func runIntake(cmd *cobra.Command, g *globals, file, landing string) error {
	out := cmd.OutOrStdout()

	var query url.Values
	sourcePage := "cli"
	if landing != "" {
		u, err := url.Parse(landing)
		if err != nil {
			return fmt.Errorf("parse --landing-url: %w", err)
		}
		query = u.Query()
		if u.Path != "" {
			sourcePage = u.Path
		}
	}

	toasts := toast.NewQueue()
	defer toasts.Close()
	summaries := cache.New[intake.Summary](intake.DefaultSummaryTTL)
	defer summaries.Close()
	campaigns := utm.NewStore(utm.DefaultSessionTTL)
	defer campaigns.Close()

	session := uuid.NewString()
	campaigns.Observe(session, query)

	tracker := analytics.NewLogTracker(g.logger, landing)
	analytics.PageView(tracker, "intake", analytics.Properties{"source_page": sourcePage})

	form := intake.New(
		intake.WithTracker(tracker),
		intake.WithToasts(toasts),
		intake.WithSummaryCache(summaries),
		intake.WithCampaign(func() utm.Params { return campaigns.Lookup(session) }),
		intake.WithSourcePage(sourcePage),
		intake.WithNavigator(intake.NavigatorFunc(func(to string) {
			fmt.Fprintf(out, "-> %s\n", to)
		})),
	)
	form.Prefill(query)

	if file != "" {
		brief, err := loadBriefFile(file)
		if err != nil {
			return err
		}
		campaigns.Observe(session, brief.UTM.Values())
		if err := brief.apply(form); err != nil {
			return err
		}
	} else {
		p := &prompter{in: bufio.NewScanner(cmd.InOrStdin()), out: out}
		if err := p.walk(form); err != nil {
			return err
		}
	}

	client := intake.NewClient(g.apiURL, intake.WithTimeout(g.timeout))
	_, err := form.Submit(cmd.Context(), client)
	printToasts(out, toasts)
	if err != nil {
		var rejected *intake.RejectedError
		if errors.As(err, &rejected) {
			for _, is := range rejected.Issues {
				fmt.Fprintf(out, "  %s: %s\n", is.Field, is.Message)
			}
		}
		return err
	}

	if s, ok := intake.ConsumeSummary(summaries); ok {
		printSummary(out, s)
	}
	return nil
}

func printToasts(w io.Writer, q *toast.Queue) {
	for _, t := range q.Active() {
		fmt.Fprintf(w, "[%s] %s: %s\n", t.Kind, t.Title, t.Message)
	}
}

func printSummary(w io.Writer, s *intake.Summary) {
	fmt.Fprintf(w, "\n%s\n", s.Title())
	fmt.Fprintf(w, "  Lead:    %s\n", s.LeadID)
	if s.Company != "" {
		fmt.Fprintf(w, "  Company: %s\n", s.Company)
	}
	fmt.Fprintf(w, "  Contact: %s <%s>\n", s.ContactName, s.Email)
	fmt.Fprintf(w, "  Sent:    %s\n", s.SubmittedAt.Format("2006-01-02 15:04 MST"))
}
