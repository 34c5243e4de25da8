package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snaps, ops := s.svc.Stats.All()
	writeJSON(w, http.StatusOK, map[string]any{
		"window":     s.cfg.StatsWindow.String(),
		"operations": ops,
		"stats":      snaps,
	})
}
