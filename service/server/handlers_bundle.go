package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"notibridge/service/bundle"
	"notibridge/service/metrics"
	"notibridge/service/notification"
	"notibridge/service/util"

	"github.com/go-chi/chi/v5"
)

type droppedField struct {
	Key   string `json:"key"`
	Raw   string `json:"raw"`
	Error string `json:"error"`
}

type serializeResponse struct {
	Kind          notification.Kind `json:"kind"`
	Bundle        *bundle.Bundle    `json:"bundle"`
	DroppedFields []droppedField    `json:"droppedFields"`
}

func droppedFields(errs []notification.FieldError) []droppedField {
	out := make([]droppedField, 0, len(errs))
	for _, fe := range errs {
		out = append(out, droppedField{Key: fe.Key, Raw: fe.Raw, Error: fe.Err.Error()})
	}
	return out
}

func requestFormat(r *http.Request) notification.Format {
	if strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "yaml") {
		return notification.FormatYAML
	}
	return notification.FormatJSON
}

// readBody reads at most MAX_BODY_BYTES and writes the error response
// itself when it fails.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			util.JSONError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		util.JSONError(w, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	return data, true
}

func (s *Server) serialize(kind notification.Kind, in notification.Input) (*bundle.Bundle, []notification.FieldError, error) {
	b, dropped, err := in.Serialize(s.serializer)
	if err != nil {
		return nil, nil, err
	}
	metrics.BundlesSerialized.WithLabelValues(string(kind)).Inc()
	metrics.FieldsDropped.Add(float64(len(dropped)))
	return b, dropped, nil
}

func (s *Server) handleSerialize(w http.ResponseWriter, r *http.Request) {
	kind := notification.Kind(chi.URLParam(r, "kind"))
	if _, err := notification.NewInput(kind); err != nil {
		util.JSONError(w, err.Error(), http.StatusNotFound)
		return
	}

	data, ok := s.readBody(w, r)
	if !ok {
		return
	}

	in, err := notification.DecodeInput(kind, data, requestFormat(r))
	if err != nil {
		util.JSONError(w, "Invalid "+string(kind)+": "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := util.ValidateStruct(in); err != nil {
		util.JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, dropped, err := s.serialize(kind, in)
	if err != nil {
		util.JSONError(w, "Invalid "+string(kind)+": "+err.Error(), http.StatusBadRequest)
		return
	}

	util.WriteJSON(w, s.logger, http.StatusOK, serializeResponse{
		Kind:          kind,
		Bundle:        b,
		DroppedFields: droppedFields(dropped),
	})
}
