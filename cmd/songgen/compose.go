package main

import (
	"fmt"

	"github.com/cwbudde/algo-compose/compose"
	"github.com/cwbudde/algo-compose/export"
	"github.com/cwbudde/algo-compose/internal/names"
	"github.com/cwbudde/algo-compose/song"
	"github.com/spf13/cobra"
)

var (
	sheetOut string
	grid     bool
)

func init() {
	composeCmd.Flags().StringVar(&sheetOut, "yaml", "", "Also write the sheet to this YAML file")
	composeCmd.Flags().BoolVar(&grid, "grid", true, "Print notes on a measure grid")
	rootCmd.AddCommand(composeCmd)
}

var composeCmd = &cobra.Command{
	Use:   "compose [name]",
	Short: "Compose a song and print its tracks",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPreset()
		if err != nil {
			return err
		}
		name := names.New()
		if len(args) == 1 {
			name = args[0]
		}
		if !names.Valid(name) {
			return fmt.Errorf("invalid song name %q", name)
		}

		sheet, tracks, err := song.Compose(cmd.Context(), p.Plan, name)
		if err != nil {
			return err
		}
		key, err := compose.KeyIndex(p.Config.Key)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s in %s, %d ticks\n", name, p.Config.Key, sheet.Duration())
		for i, role := range p.Plan.Output {
			measure := 0
			if grid {
				measure = p.Plan.Stages[stageIndex(p.Plan, role)].Params.MeasureLen
			}
			fmt.Fprintf(out, "\n%s (%d notes):", role, len(sheet[i].Notes))
			if measure == 0 {
				fmt.Fprint(out, " ")
			}
			fmt.Fprintln(out, compose.TrackString(sheet[i], key, measure))
		}

		if sheetOut != "" {
			doc := export.SheetDocument{Name: name, Key: p.Config.Key, Tracks: tracks, Sheet: sheet}
			if err := export.SaveSheetYAML(sheetOut, doc); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nWrote %s\n", sheetOut)
		}
		return nil
	},
}

func stageIndex(plan song.Plan, role string) int {
	for i, s := range plan.Stages {
		if s.Role == role {
			return i
		}
	}
	return 0
}

