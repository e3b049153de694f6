package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cwbudde/algo-compose/analysis"
	"github.com/cwbudde/algo-compose/compose"
	"github.com/cwbudde/algo-compose/export"
	"github.com/cwbudde/algo-compose/internal/clicommon"
	"github.com/cwbudde/algo-compose/internal/names"
	"github.com/cwbudde/algo-compose/song"
	"github.com/cwbudde/algo-compose/synth"
	"github.com/spf13/cobra"
)

var (
	songName  string
	sheetIn   string
	formats   []string
	outDir    string
	outRate   int
	artist    string
	album     string
	quiet     bool
	showStats bool
)

func init() {
	f := renderCmd.Flags()
	f.StringVar(&songName, "seed", "", "Song name used as the random seed (default: random)")
	f.StringVar(&sheetIn, "sheet", "", "Render a sheet YAML written by 'compose --yaml' instead of composing")
	f.StringSliceVarP(&formats, "format", "f", []string{"wav"}, "Output formats: wav, mid, mp3")
	f.StringVar(&outDir, "out-dir", "output", "Output directory")
	f.IntVar(&outRate, "out-rate", 0, "Resample the WAV output to this rate (0 keeps the synthesis rate)")
	f.StringVar(&artist, "artist", "songgen", "Artist metadata for mp3 output")
	f.StringVar(&album, "album", "Procedural", "Album metadata for mp3 output")
	f.BoolVarP(&quiet, "quiet", "q", false, "Do not draw a progress bar")
	f.BoolVar(&showStats, "stats", true, "Print signal statistics of the rendered mix")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render <instrument>[,instrument...]",
	Short: "Compose a song and render it to audio",
	Long: `Compose a song from a name and render it. One instrument is used per
track; the last one repeats for remaining tracks. Instruments: ` + strings.Join(synth.KindNames(), ", ") + `.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var kinds []synth.Kind
		for _, part := range strings.Split(args[0], ",") {
			k, err := synth.ParseKind(part)
			if err != nil {
				return err
			}
			kinds = append(kinds, k)
		}
		wantWAV, wantMID, wantMP3, err := parseFormats(formats)
		if err != nil {
			return err
		}
		p, err := loadPreset()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		name := songName
		var sheet compose.Sheet
		if sheetIn != "" {
			doc, err := export.LoadSheetYAML(sheetIn)
			if err != nil {
				return err
			}
			sheet = doc.Sheet
			if name == "" {
				name = doc.Name
			}
		}
		if name == "" {
			name = names.New()
		}
		if !names.Valid(name) {
			return fmt.Errorf("invalid song name %q", name)
		}
		if sheet == nil {
			sheet, _, err = song.Compose(ctx, p.Plan, name)
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		r, err := song.NewRenderer(p.Config)
		if err != nil {
			return err
		}
		var progress func(done, total int)
		if !quiet {
			progress = clicommon.ProgressBar(cmd.ErrOrStderr(), "Rendering "+name, 40)
		}
		start := time.Now()
		res, err := r.Render(ctx, sheet, kinds, progress)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Rendered %s: %d tracks, %.1fs of audio in %s (%d buffers synthesized)\n",
			name, len(sheet), res.Seconds(), time.Since(start).Round(time.Millisecond), r.Cache().Syntheses())

		maxAmp := p.Config.Synth.MaxAmplitude()
		mono := res.Wave.Float64(maxAmp)
		if showStats {
			printStats(cmd, mono, res.SampleRate)
		}

		base := filepath.Join(outDir, name)
		if wantWAV || wantMP3 {
			samples, rate := mono, res.SampleRate
			if outRate > 0 && outRate != rate {
				samples, err = export.Resample(mono, rate, outRate)
				if err != nil {
					return err
				}
				rate = outRate
			}
			if err := export.SaveWAV(base+".wav", export.Float32(samples), rate, res.BitDepth); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %s.wav\n", base)
		}
		if wantMID {
			opts := export.DefaultMIDIOptions()
			opts.Title = name
			opts.TickMillis = p.Config.TickMillis
			if err := export.SaveMIDI(base+".mid", res.Cues, opts); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %s.mid\n", base)
		}
		if wantMP3 {
			enc := export.DefaultEncoder()
			err := enc.Encode(ctx, base+".wav", base+".mp3", export.Metadata{Title: name, Artist: artist, Album: album})
			switch {
			case errors.Is(err, export.ErrEncoderMissing):
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v; keeping %s.wav\n", err, base)
			case err != nil:
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: mp3 encoding failed: %v; keeping %s.wav\n", err, base)
			default:
				fmt.Fprintf(out, "Wrote %s.mp3\n", base)
				if !wantWAV {
					os.Remove(base + ".wav")
				}
			}
		}
		return nil
	},
}

func parseFormats(list []string) (wav, mid, mp3 bool, err error) {
	for _, f := range list {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "wav":
			wav = true
		case "mid", "midi":
			mid = true
		case "mp3":
			mp3 = true
		default:
			return false, false, false, fmt.Errorf("unknown format %q (use wav, mid or mp3)", f)
		}
	}
	return wav, mid, mp3, nil
}

func printStats(cmd *cobra.Command, mono []float64, sampleRate int) {
	out := cmd.OutOrStdout()
	s := analysis.Measure(mono, sampleRate)
	fmt.Fprintf(out, "Peak %.1f dBFS, RMS %.1f dBFS, %d clipped samples\n", s.PeakDB, s.RMSDB, s.Clipped)
	// The opening note dominates the first window.
	head := mono
	if n := sampleRate / 4; len(head) > n {
		head = head[:n]
	}
	if f, err := analysis.DominantFrequency(export.Float32(head), sampleRate); err == nil {
		fmt.Fprintf(out, "Opening pitch ~%.1f Hz\n", f)
	}
}
