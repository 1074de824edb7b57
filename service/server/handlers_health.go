package server

import (
	"net/http"
	"time"

	"notibridge/service/integration"
	"notibridge/service/util"
)

type healthResponse struct {
	Version      string                        `json:"version"`
	Uptime       string                        `json:"uptime"`
	Integrations map[string]integration.Status `json:"integrations"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	util.WriteJSON(w, s.logger, http.StatusOK, healthResponse{
		Version:      s.version,
		Uptime:       util.FormatUptime(time.Since(s.startTime)),
		Integrations: s.integrations.Health(r.Context()),
	})
}
