package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cwbudde/algo-compose/internal/server"
	"github.com/cwbudde/algo-compose/song"
	"github.com/cwbudde/algo-compose/synth"
	"github.com/spf13/cobra"
)

var (
	listenAddr string
	instrument string
)

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&instrument, "instrument", "guitar", "Default instruments, comma separated")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve rendered songs over HTTP",
	Long:  `Serves GET /songs/{name}.{wav|mid|json}?instrument=sine,guitar with a renderer cache shared across requests.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPreset()
		if err != nil {
			return err
		}
		var kinds []synth.Kind
		for _, part := range strings.Split(instrument, ",") {
			k, err := synth.ParseKind(part)
			if err != nil {
				return err
			}
			kinds = append(kinds, k)
		}
		r, err := song.NewRenderer(p.Config)
		if err != nil {
			return err
		}
		logger := log.New(os.Stderr, "songgen ", log.LstdFlags)
		s, err := server.New(p.Plan, r, kinds, logger)
		if err != nil {
			return err
		}

		srv := &http.Server{Addr: listenAddr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
		errCh := make(chan error, 1)
		go func() {
			logger.Printf("listening on %s", listenAddr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-cmd.Context().Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			logger.Printf("shutting down")
			return srv.Shutdown(shutdownCtx)
		}
	},
}
