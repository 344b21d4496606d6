package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"pastebox/svc/util"
)

type HealthResponse struct {
	Status string `json:"status"`
}
type ReadyResponse struct {
	Ready   bool   `json:"ready"`
	Mode    string `json:"mode"`
	Storage string `json:"storage"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	resp := ReadyResponse{
		Ready:   true,
		Mode:    string(s.paste.Mode()),
		Storage: "up",
	}
	if err := s.paste.Ping(ctx); err != nil {
		util.Error().Err(err).Msg("storage health check failed")
		resp.Storage = "down"
		resp.Ready = false
	}
	w.Header().Set("Content-Type", "application/json")
	if !resp.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(resp)
}
