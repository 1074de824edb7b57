package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	"notibridge/service/delivery"
	"notibridge/service/notification"
	"notibridge/service/util"
)

type deliverRequest struct {
	AppName      string                          `json:"appName" validate:"required,max=128"`
	Response     *notification.ResponseInput     `json:"response,omitempty" validate:"required_without=Notification,excluded_with=Notification"`
	Notification *notification.NotificationInput `json:"notification,omitempty" validate:"required_without=Response"`
}

type deliverResponse struct {
	AppName       string            `json:"appName"`
	Kind          notification.Kind `json:"kind"`
	DroppedFields []droppedField    `json:"droppedFields"`
	Deliveries    delivery.Summary  `json:"deliveries"`
}

// object picks the populated member and returns it with the content that
// human-facing channels render.
func (req *deliverRequest) object() (notification.Kind, notification.Input, *notification.Content, error) {
	if req.Response != nil {
		resp, err := req.Response.Response()
		if err != nil {
			return "", nil, nil, err
		}
		return notification.KindResponse, req.Response, resp.Notification.Request.Content, nil
	}

	n, err := req.Notification.Notification()
	if err != nil {
		return "", nil, nil, err
	}
	return notification.KindNotification, req.Notification, n.Request.Content, nil
}

func (s *Server) handleDeliver(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var req deliverRequest
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		util.JSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := util.ValidateStruct(req); err != nil {
		util.JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	kind, in, content, err := req.object()
	if err != nil {
		util.JSONError(w, "Invalid "+err.Error(), http.StatusBadRequest)
		return
	}

	b, dropped, err := s.serialize(kind, in)
	if err != nil {
		util.JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	notif := delivery.NewNotification(kind, b, content)

	summary, err := s.integrations.Publisher.Publish(r.Context(), req.AppName, notif)
	if err != nil {
		util.LogAndError(w, s.logger, "Failed to deliver notification", http.StatusBadGateway, err, "app", req.AppName)
		return
	}

	s.logger.Info("Delivered notification", "app", req.AppName, "kind", kind, "droppedFields", len(dropped))

	util.WriteJSON(w, s.logger, http.StatusAccepted, deliverResponse{
		AppName:       req.AppName,
		Kind:          kind,
		DroppedFields: droppedFields(dropped),
		Deliveries:    summary,
	})
}
