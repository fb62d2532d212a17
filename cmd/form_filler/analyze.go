package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/form-filler/internal/extraction"
	"github.com/jonathan/form-filler/internal/facts"
	"github.com/jonathan/form-filler/internal/observability"
	"github.com/jonathan/form-filler/internal/schemas"
	"github.com/jonathan/form-filler/internal/types"
	"github.com/jonathan/form-filler/internal/upload"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze FORM",
	Short: "List the fields of a blank form",
	Long:  "Run schema extraction over a blank form and print the fields it asks for.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var extractFactsCmd = &cobra.Command{
	Use:   "extract-facts REFERENCE...",
	Short: "Extract facts from reference documents",
	Long:  "Run facts extraction over reference documents and print the merged facts, latest document winning.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExtractFacts,
}

var (
	analyzeJSON bool
	factsJSON   bool
)

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print fields as JSON")
	extractFactsCmd.Flags().BoolVar(&factsJSON, "json", false, "Print facts as JSON")
	rootCmd.AddCommand(analyzeCmd, extractFactsCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	docs, err := upload.LoadFiles(args)
	if err != nil {
		return err
	}

	svc, closeSvc, err := newService(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeSvc()

	res := svc.Extract(cmd.Context(), extraction.ModeSchema, docs)
	if res.Failed() {
		return res.Err
	}
	return printFields(cmd.OutOrStdout(), res.Payload.Fields, analyzeJSON)
}

func runExtractFacts(cmd *cobra.Command, args []string) error {
	docs, err := upload.LoadFiles(args)
	if err != nil {
		return err
	}

	svc, closeSvc, err := newService(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeSvc()

	res := svc.Extract(cmd.Context(), extraction.ModeFacts, docs)
	if res.Failed() {
		return res.Err
	}

	store := facts.New()
	for _, sf := range res.Payload.Facts {
		store.Merge(sf.Source, sf.Facts)
	}
	return printFacts(cmd.OutOrStdout(), store.Snapshot(), factsJSON)
}

func printFields(out io.Writer, fields []types.Field, asJSON bool) error {
	if !asJSON {
		observability.NewPrinter(out).PrintFields(fields)
		return nil
	}
	if fields == nil {
		fields = []types.Field{}
	}
	return writeValidatedJSON(out, schemas.FormFields, fields)
}

func printFacts(out io.Writer, snapshot map[types.FactKey]string, asJSON bool) error {
	if !asJSON {
		observability.NewPrinter(out).PrintFacts(snapshot)
		return nil
	}
	return writeValidatedJSON(out, schemas.Facts, snapshot)
}

// writeValidatedJSON checks v against an embedded schema before printing it.
func writeValidatedJSON(out io.Writer, schema string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := schemas.Validate(schema, string(data)); err != nil {
		return fmt.Errorf("output does not match %s: %w", schema, err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
