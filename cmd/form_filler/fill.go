package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/form-filler/internal/errors"
	"github.com/jonathan/form-filler/internal/observability"
	"github.com/jonathan/form-filler/internal/types"
	"github.com/jonathan/form-filler/internal/upload"
	"github.com/jonathan/form-filler/internal/wizard"
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill a form from reference documents",
	Long: `Run the whole wizard: read the form, extract facts from the references,
apply --select and --answer overrides, and print the completed answers.
With --interactive, conflicts and missing answers are prompted for on stdin.`,
	RunE: runFill,
}

// fillOptions holds the fill flags.
type fillOptions struct {
	Form        string
	Refs        []string
	Selects     []string // field_id=candidate
	Answers     []string // field_id=text
	Interactive bool
	JSON        bool
	Out         string
}

var fillOpts fillOptions

func init() {
	fillCmd.Flags().StringVar(&fillOpts.Form, "form", "", "Path to the blank form (required)")
	fillCmd.Flags().StringArrayVar(&fillOpts.Refs, "ref", nil, "Path to a reference document (repeatable, required)")
	fillCmd.Flags().StringArrayVar(&fillOpts.Selects, "select", nil, "Resolve a conflict: field_id=candidate (repeatable)")
	fillCmd.Flags().StringArrayVar(&fillOpts.Answers, "answer", nil, "Set a manual answer: field_id=text (repeatable)")
	fillCmd.Flags().BoolVarP(&fillOpts.Interactive, "interactive", "i", false, "Prompt for unresolved fields")
	fillCmd.Flags().BoolVar(&fillOpts.JSON, "json", false, "Print answers as JSON")
	fillCmd.Flags().StringVarP(&fillOpts.Out, "out", "o", "", "Also write the answers as JSON to this file")
	_ = fillCmd.MarkFlagRequired("form")
	_ = fillCmd.MarkFlagRequired("ref")
	rootCmd.AddCommand(fillCmd)
}

func runFill(cmd *cobra.Command, _ []string) error {
	svc, closeSvc, err := newService(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeSvc()

	factory, err := controllerFactory(cfg, svc, logger)
	if err != nil {
		return err
	}
	c, err := factory()
	if err != nil {
		return err
	}

	answers, err := fill(cmd.Context(), c, fillOpts, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if fillOpts.Out != "" {
		data, err := json.MarshalIndent(answers, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		if err := os.WriteFile(fillOpts.Out, data, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
	}
	return nil
}

// fill drives c through every step and prints the result to out.
func fill(ctx context.Context, c *wizard.Controller, opts fillOptions, in io.Reader, out io.Writer) ([]types.Answer, error) {
	selects, err := parseAssignments(opts.Selects)
	if err != nil {
		return nil, err
	}
	manual, err := parseAssignments(opts.Answers)
	if err != nil {
		return nil, err
	}

	printer := observability.NewPrinter(out)
	for _, step := range c.Steps() {
		if !step.IsUpload() {
			break
		}
		paths := opts.Refs
		if step.Kind == wizard.KindFormUpload {
			paths = []string{opts.Form}
		}
		docs, err := upload.LoadFiles(paths)
		if err != nil {
			return nil, err
		}
		if err := c.Select(docs); err != nil {
			return nil, err
		}
		if err := c.Advance(ctx); err != nil {
			return nil, err
		}
	}

	for _, a := range selects {
		if err := c.SelectCandidate(a.fieldID, a.value); err != nil {
			return nil, err
		}
	}
	for _, a := range manual {
		if err := c.EnterManual(a.fieldID, a.value); err != nil {
			return nil, err
		}
	}

	if opts.Interactive {
		if err := prompt(c, bufio.NewScanner(in), out); err != nil {
			return nil, err
		}
	}

	if err := c.Advance(ctx); err != nil {
		if errors.Is(err, errors.ErrMissingAnswers) {
			printer.PrintReview(c.View())
		}
		return nil, err
	}

	answers, _ := c.Answers()
	if opts.JSON {
		data, err := json.MarshalIndent(answers, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(out, string(data))
	} else {
		printer.PrintAnswers(answers)
	}
	return answers, nil
}

// prompt asks for every field that is not resolved. Conflicts accept a
// candidate number or free text; an empty line skips the field.
func prompt(c *wizard.Controller, sc *bufio.Scanner, out io.Writer) error {
	for _, v := range c.View() {
		if v.Status == types.StatusResolved {
			continue
		}
		_, _ = fmt.Fprintf(out, "\n%s\n", v.Text)
		for i, cand := range v.Candidates {
			_, _ = fmt.Fprintf(out, "  %d) %s\n", i+1, cand)
		}
		_, _ = fmt.Fprint(out, "> ")

		if !sc.Scan() {
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(v.Candidates) {
			if err := c.SelectCandidate(v.ID, v.Candidates[n-1]); err != nil {
				return err
			}
			continue
		}
		if err := c.EnterManual(v.ID, line); err != nil {
			return err
		}
	}
	return nil
}

type assignment struct {
	fieldID string
	value   string
}

// parseAssignments parses field_id=value pairs. The value may contain '='.
func parseAssignments(raw []string) ([]assignment, error) {
	out := make([]assignment, 0, len(raw))
	for _, r := range raw {
		id, value, ok := strings.Cut(r, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, errors.NewValidationError("flag", fmt.Sprintf("expected field_id=value, got %q", r))
		}
		out = append(out, assignment{fieldID: id, value: value})
	}
	return out, nil
}
