// Package status serves a small HTTP API exposing the pipeline's most
// recent classification event and health counters. It stands in for
// the original operator console's live readout and is optional: it
// only runs when a listen address is configured.
package status

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/mindwheel/mindwheel/internal/log"
	"github.com/mindwheel/mindwheel/internal/sinks"
)

// Controller is the HTTP status endpoint.
type Controller struct {
	addr   string
	cache  *sinks.StatusCache
	server *http.Server
}

// NewController creates a status controller bound to addr, reading
// from the given status cache.
func NewController(addr string, cache *sinks.StatusCache) *Controller {
	c := &Controller{addr: addr, cache: cache}

	router := mux.NewRouter()
	router.HandleFunc("/status", c.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/latest", c.handleLatest).Methods(http.MethodGet)

	c.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return c
}

// Start launches the HTTP server and a shutdown watcher tied to ctx.
func (c *Controller) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := c.server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("status server shutdown: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Infof("status server listening on %s", c.addr)
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("status server error: %v", err)
		}
	}()
}

func (c *Controller) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, c.cache.Snapshot())
}

func (c *Controller) handleLatest(w http.ResponseWriter, r *http.Request) {
	snap := c.cache.Snapshot()
	if snap.Latest == nil {
		http.Error(w, "no snippets processed yet", http.StatusNotFound)
		return
	}
	writeJSON(w, snap.Latest)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encoding status response: %v", err)
	}
}
