package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kolkov/lockbench/internal/config"
	"github.com/kolkov/lockbench/internal/device"
	"github.com/kolkov/lockbench/internal/metrics"
	"github.com/kolkov/lockbench/internal/report"
)

func newServeCmd() *config.SubCommand {
	sc := &config.SubCommand{}
	sc.Cmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve metrics and the simulated device over HTTP",
		Long: `serve exposes:
  GET  /metrics         Prometheus metrics of every run
  POST /device/open     run the reference suite, respond with its report
  GET  /device/read     the latest report (404 before the first open)
  GET  /device/history  the kept reports as a JSON array`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := prepare(sc); err != nil {
				return err
			}
			dev := device.New(config.Device(sc.Conf))
			defer dev.Close()
			mux, err := newServeMux(dev)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), sc.Conf.GetString(config.FlagAddr), mux)
		},
	}
	flags := sc.Cmd.Flags()
	flags.String(config.FlagAddr, config.DefaultAddr, "HTTP listen address.")
	flags.Int(config.FlagHistory, device.DefaultHistory, "Number of device reports kept.")
	config.AddSuiteFlags(sc.Cmd.Flags())
	return sc
}

func newServeMux(dev *device.Device) (*http.ServeMux, error) {
	promHandler, err := metrics.Handler()
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promHandler)
	mux.HandleFunc("/device/open", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "use POST", http.StatusMethodNotAllowed)
			return
		}
		h, err := dev.Open()
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		defer h.Release()
		writeHandle(w, h)
	})
	mux.HandleFunc("/device/read", func(w http.ResponseWriter, r *http.Request) {
		rep := dev.Latest()
		if rep == nil {
			http.Error(w, device.ErrNoReport.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := rep.WriteText(w); err != nil {
			glog.Errorf("while writing report: %v", err)
		}
	})
	mux.HandleFunc("/device/history", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		var buf bytes.Buffer
		if err := report.WriteJSONList(&buf, dev.History()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(buf.Bytes())
	})
	return mux, nil
}

func writeHandle(w http.ResponseWriter, h *device.Handle) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, h); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, device.ErrNoReport) {
			code = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), code)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		glog.Infof("Serving on %s", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return errors.Wrapf(err, "while serving on %s", addr)
	case <-ctx.Done():
	}
	glog.Infof("Shutting down server on %s", addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
