package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hoclconnect/leads/internal/intake"
)

var errBack = errors.New("back")

var fieldLabels = map[intake.Field]string{
	intake.FieldBulkUseCase:  "Use case",
	intake.FieldAmountBand:   "How much?",
	intake.FieldCadence:      "How often?",
	intake.FieldTimeline:     "When do you need it?",
	intake.FieldBulkFormat:   "Format",
	intake.FieldProductType:  "Product type",
	intake.FieldEndFormat:    "End format",
	intake.FieldRunSize:      "Run size",
	intake.FieldLaunchWindow: "Launch window",
	intake.FieldScope:        "Scope",
	intake.FieldRegion:       "Region preference",
	intake.FieldNotes:        "Notes",
	intake.FieldCompany:      "Company",
	intake.FieldContactName:  "Your name",
	intake.FieldEmail:        "Email",
	intake.FieldPhone:        "Phone",
}

// prompter walks a Form over a line-oriented terminal. Typing "back"
// at any prompt returns to the previous step.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func (p *prompter) walk(f *intake.Form) error {
	for {
		step, path := f.Step(), f.Path()
		fmt.Fprintf(p.out, "\n[%d/%d] %s\n", int(step)+1, f.Total(), step.Title(path))

		err := p.ask(f, step, path)
		if errors.Is(err, errBack) {
			f.Back()
			continue
		}
		if err != nil {
			return err
		}

		if step == intake.StepContact {
			if f.CanProceed() {
				return nil
			}
		} else if err := f.Next(); err == nil {
			continue
		} else if !errors.Is(err, intake.ErrIncomplete) {
			return err
		}
		fmt.Fprintln(p.out, "Please answer the required questions.")
	}
}

func (p *prompter) ask(f *intake.Form, step intake.Step, path intake.Path) error {
	if step == intake.StepPath {
		return p.choosePath(f)
	}
	for _, field := range intake.FieldsFor(step, path) {
		if err := p.choose(f, field); err != nil {
			return err
		}
	}
	for _, field := range intake.TextFieldsFor(step) {
		if err := p.text(f, field); err != nil {
			return err
		}
	}
	return nil
}

func (p *prompter) choosePath(f *intake.Form) error {
	paths := []intake.Path{intake.PathBulk, intake.PathPrivateLabel}
	for i, path := range paths {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, path.Label())
	}
	current := f.Path()
	for {
		in, err := p.line("  choice", string(current))
		if err != nil {
			return err
		}
		if in == "" && current != "" {
			return nil
		}
		path := parsePath(in)
		if n, err := strconv.Atoi(in); err == nil && n >= 1 && n <= len(paths) {
			path = paths[n-1]
		}
		if err := f.SelectPath(path); err == nil {
			return nil
		}
		fmt.Fprintln(p.out, "  pick 1 or 2")
	}
}

func (p *prompter) choose(f *intake.Form, field intake.Field) error {
	opts := intake.Options(field)
	fmt.Fprintf(p.out, "  %s%s\n", fieldLabels[field], optionalSuffix(field))
	for i, o := range opts {
		if o.Description != "" {
			fmt.Fprintf(p.out, "    %d) %s - %s\n", i+1, o.Title, o.Description)
		} else {
			fmt.Fprintf(p.out, "    %d) %s\n", i+1, o.Title)
		}
	}

	current := f.Answer(field)
	for {
		in, err := p.line("  choice", current.Value())
		if err != nil {
			return err
		}
		if in == "" {
			if current.Answered() || !intake.Required(field) {
				return nil
			}
			fmt.Fprintln(p.out, "  required")
			continue
		}
		id := in
		if n, err := strconv.Atoi(in); err == nil && n >= 1 && n <= len(opts) {
			id = opts[n-1].ID
		}
		err = f.Choose(field, id)
		if errors.Is(err, intake.ErrUnknownOption) {
			fmt.Fprintf(p.out, "  pick 1-%d\n", len(opts))
			continue
		}
		return err
	}
}

func (p *prompter) text(f *intake.Form, field intake.Field) error {
	current := f.Text(field)
	for {
		in, err := p.line("  "+fieldLabels[field]+optionalSuffix(field), current)
		if err != nil {
			return err
		}
		if in == "" {
			if strings.TrimSpace(current) != "" || !intake.Required(field) {
				return nil
			}
			fmt.Fprintln(p.out, "  required")
			continue
		}
		return f.SetText(field, in)
	}
}

// line prints label and reads one trimmed line. current, if set, is shown
// as the value kept on an empty answer.
func (p *prompter) line(label, current string) (string, error) {
	if current != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	in := strings.TrimSpace(p.in.Text())
	if in == "back" {
		return "", errBack
	}
	return in, nil
}

func optionalSuffix(f intake.Field) string {
	if intake.Required(f) {
		return ""
	}
	return " (optional)"
}
