package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cwbudde/algo-compose/internal/clicommon"
	"github.com/cwbudde/algo-compose/preset"
	"github.com/spf13/cobra"
)

var (
	presetPath string
	workers    string
	sampleRate int
)

var rootCmd = &cobra.Command{
	Use:           "songgen",
	Short:         "Procedural song composer and renderer",
	Long:          `songgen composes melodies and counterpoint from a song name and renders them with simple synthesized instruments.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&presetPath, "preset", "", "Preset JSON or YAML file (optional)")
	rootCmd.PersistentFlags().StringVar(&workers, "workers", "auto", "Parallel note renders (number or 'auto')")
	rootCmd.PersistentFlags().IntVar(&sampleRate, "sample-rate", 0, "Synthesis sample rate in Hz (0 keeps the preset value)")
}

// loadPreset applies the command line overrides on top of the preset file.
func loadPreset() (*preset.Preset, error) {
	p := preset.Default()
	if presetPath != "" {
		loaded, err := preset.Load(presetPath)
		if err != nil {
			return nil, fmt.Errorf("loading preset %q: %w", presetPath, err)
		}
		p = loaded
	}
	n, err := clicommon.ParseWorkers(workers)
	if err != nil {
		return nil, fmt.Errorf("invalid workers value: %w", err)
	}
	p.Config.Workers = n
	if sampleRate != 0 {
		p.Config.Synth.SampleRate = sampleRate
	}
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
