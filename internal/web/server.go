// Package web serves the latest decoded run as a map viewer and JSON API.
package web

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"sensorlocator/internal/geo"
	"sensorlocator/internal/geojson"
	"sensorlocator/internal/ingest"
	"sensorlocator/internal/kml"
)

//go:embed assets/*
var embeddedAssets embed.FS

// ReloadFunc re-runs the pipeline over the configured input.
type ReloadFunc func(ctx context.Context) (*ingest.Result, error)

type Options struct {
	Status *Status
	Logs   *LogBuffer
	KML    kml.Options
	// Reload enables POST /api/reload when set.
	Reload ReloadFunc
}

func Handler(opts Options) http.Handler {
	status := opts.Status
	if status == nil {
		status = NewStatus()
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "sensorlocator"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, status.Snapshot(time.Now().UTC()))
	}).Methods(http.MethodGet)

	api.HandleFunc("/nodes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, nodesOf(status.Result()))
	}).Methods(http.MethodGet)

	api.HandleFunc("/sensors/{id}/nodes", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		if err != nil {
			http.Error(w, "sensor id must be an integer", http.StatusBadRequest)
			return
		}
		out := []geo.Node{}
		for _, n := range nodesOf(status.Result()) {
			if n.Source != nil && n.Source.SensorID == id {
				out = append(out, n)
			}
		}
		writeJSON(w, http.StatusOK, out)
	}).Methods(http.MethodGet)

	api.HandleFunc("/skips", func(w http.ResponseWriter, r *http.Request) {
		skips := []ingest.Skip{}
		if res := status.Result(); res != nil && res.Skips != nil {
			skips = res.Skips
		}
		writeJSON(w, http.StatusOK, skips)
	}).Methods(http.MethodGet)

	if opts.Logs != nil {
		api.Handle("/logs", opts.Logs).Methods(http.MethodGet)
	}

	if opts.Reload != nil {
		api.HandleFunc("/reload", func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
			defer cancel()
			res, err := opts.Reload(ctx)
			if err != nil {
				status.SetError(err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			status.SetResult(time.Now().UTC(), status.Source(), res)
			writeJSON(w, http.StatusOK, status.Snapshot(time.Now().UTC()))
		}).Methods(http.MethodPost)
	}

	r.HandleFunc("/map.kml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
		w.Header().Set("Cache-Control", "no-store")
		_ = kml.Encode(w, nodesOf(status.Result()), opts.KML)
	}).Methods(http.MethodGet)

	r.HandleFunc("/map.geojson", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/geo+json")
		w.Header().Set("Cache-Control", "no-store")
		_ = geojson.Encode(w, opts.KML.DocumentName, nodesOf(status.Result()))
	}).Methods(http.MethodGet)

	if assetsFS, err := fs.Sub(embeddedAssets, "assets"); err == nil {
		index, _ := fs.ReadFile(assetsFS, "index.html")
		r.PathPrefix("/assets/").Handler(http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS)))).Methods(http.MethodGet)
		r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if index == nil {
				http.Error(w, "ui unavailable", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Cache-Control", "no-store")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write(index)
		}).Methods(http.MethodGet)
	}

	return r
}

func nodesOf(res *ingest.Result) []geo.Node {
	if res == nil || res.Nodes == nil {
		return []geo.Node{}
	}
	return res.Nodes
}

// Serve runs the viewer until ctx is cancelled.
func Serve(ctx context.Context, listenAddr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
