package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/posview/classify"
	"github.com/hazyhaar/posview/dom"
	"github.com/hazyhaar/posview/viewmode"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <fixture.html>",
	Short: "Classify an offline page fixture and print the result as JSON",
	Long: `Runs the container, row and thumbnail heuristics over an HTML fixture.
Geometry comes from data-rect="left,top,width,height" and computed style from
data-cs="cursor: pointer; border-radius: 8px". Thresholds are read from the
config file, so this is the loop for tuning them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		th := cfg.Thresholds
		if p, _ := cmd.Flags().GetString("policy"); p != "" {
			th.ThumbPolicy = classify.ThumbPolicy(p)
			if err := th.Validate(); err != nil {
				return err
			}
		}
		showPatch, _ := cmd.Flags().GetBool("patch")

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		doc, err := dom.ParseFixture(f)
		if err != nil {
			return err
		}

		report := classifyReport{
			Summary: classify.Summarize(classify.Classify(doc, th), classify.ScoreCandidates(doc, th)),
		}
		if showPatch {
			out := viewmode.NewController(th, newLogger(cfg.LogLevel)).Apply(doc, viewmode.List)
			report.Outcome = &out
			report.Patch = doc.Changes()
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	},
}

type classifyReport struct {
	classify.Summary
	Outcome *viewmode.Outcome `json:"list_outcome,omitempty"`
	Patch   []dom.Change      `json:"list_patch,omitempty"`
}

func init() {
	classifyCmd.Flags().String("policy", "", "thumbnail policy: leftmost or weighted (overrides config)")
	classifyCmd.Flags().Bool("patch", false, "also print the attribute patch list mode would apply")
	rootCmd.AddCommand(classifyCmd)
}
