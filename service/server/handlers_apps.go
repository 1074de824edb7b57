package server

import (
	"net/http"

	"notibridge/service/util"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleGetApps(w http.ResponseWriter, r *http.Request) {
	apps, err := s.store.GetAllApps()
	if err != nil {
		util.LogAndError(w, s.logger, "Failed to get apps", http.StatusInternalServerError, err)
		return
	}

	util.WriteJSON(w, s.logger, http.StatusOK, apps)
}

func (s *Server) handleGetSubscriptions(w http.ResponseWriter, r *http.Request) {
	appName := chi.URLParam(r, "appName")

	app, err := s.store.GetApp(appName)
	if err != nil {
		util.LogAndError(w, s.logger, "Failed to get app", http.StatusInternalServerError, err, "app", appName)
		return
	}
	if app == nil {
		util.JSONError(w, "App not found", http.StatusNotFound)
		return
	}

	util.WriteJSON(w, s.logger, http.StatusOK, app)
}

func (s *Server) handleDeleteApp(w http.ResponseWriter, r *http.Request) {
	appName := chi.URLParam(r, "appName")

	if err := s.store.RemoveApp(appName); err != nil {
		util.LogAndError(w, s.logger, "Failed to delete app", http.StatusInternalServerError, err, "app", appName)
		return
	}

	s.logger.Info("Deleted app", "app", appName)
	w.WriteHeader(http.StatusNoContent)
}
