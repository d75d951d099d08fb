// internal/diag/server.go

// Package diag serves the coordinator's binding table and node status
// over HTTP, read-only. The pump keeps running while these handlers
// snapshot state, so everything they touch must be internally guarded.
package diag

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/rfmesh/internal/mesh"
	"github.com/tamzrod/rfmesh/internal/rfnet"
)

// Source is the slice of the mesh node the handlers read.
type Source interface {
	NodeID() rfnet.NodeID
	Address() rfnet.Addr
	Role() mesh.Role
	ErrorCode() mesh.ErrorKind
	Bindings() []mesh.Binding
}

// Server exposes the diagnostics API.
type Server struct {
	src Source
	log log.FieldLogger
	srv *http.Server
}

func New(listen string, src Source, logger log.FieldLogger) *Server {
	if logger == nil {
		logger = log.StandardLogger()
	}
	s := &Server{src: src, log: logger}

	r := mux.NewRouter()
	r.HandleFunc("/api/bindings", s.handleBindings).Methods(http.MethodGet)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:         listen,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.log.WithField("listen", s.srv.Addr).Info("diagnostics listening")
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// ---- handlers ----

type bindingJSON struct {
	NodeID   uint8  `json:"node_id"`
	Address  string `json:"address"`
	Released bool   `json:"released"`
}

type statusJSON struct {
	NodeID    uint8  `json:"node_id"`
	Address   string `json:"address"`
	Role      string `json:"role"`
	Bindings  int    `json:"bindings"`
	LastError string `json:"last_error"`
}

func (s *Server) handleBindings(w http.ResponseWriter, _ *http.Request) {
	snap := s.src.Bindings()
	out := make([]bindingJSON, 0, len(snap))
	for _, b := range snap {
		out = append(out, bindingJSON{
			NodeID:   uint8(b.ID),
			Address:  b.Addr.String(),
			Released: b.Released(),
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, statusJSON{
		NodeID:    uint8(s.src.NodeID()),
		Address:   s.src.Address().String(),
		Role:      s.src.Role().String(),
		Bindings:  len(s.src.Bindings()),
		LastError: s.src.ErrorCode().String(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
