package webpush

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"notibridge/service/subscription"
	"notibridge/service/util"

	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	store        *subscription.Store
	requireHTTPS bool
	logger       *slog.Logger
}

func NewHandlers(store *subscription.Store, requireHTTPS bool, logger *slog.Logger) *Handlers {
	return &Handlers{
		store:        store,
		requireHTTPS: requireHTTPS,
		logger:       logger,
	}
}

type registerRequest struct {
	AppName         string  `json:"appName" validate:"required,max=128"`
	PushEndpoint    string  `json:"pushEndpoint" validate:"required,url"`
	P256dh          *string `json:"p256dh,omitempty" validate:"required_with=Auth VapidPrivateKey"`
	Auth            *string `json:"auth,omitempty" validate:"required_with=P256dh VapidPrivateKey"`
	VapidPrivateKey *string `json:"vapidPrivateKey,omitempty" validate:"required_with=P256dh Auth"`
}

func (req *registerRequest) encrypted() bool {
	return req.P256dh != nil && req.Auth != nil && req.VapidPrivateKey != nil
}

func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := util.ValidateStruct(req); err != nil {
		util.JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	webPush, err := req.toWebPush(h.requireHTTPS)
	if err != nil {
		util.JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	subID, err := h.store.AddSubscription(subscription.Subscription{
		AppName: req.AppName,
		Channel: subscription.ChannelWebPush,
		WebPush: webPush,
	})
	if err != nil {
		util.LogAndError(w, h.logger, "Failed to add subscription", http.StatusInternalServerError, err, "app", req.AppName)
		return
	}

	h.logger.Info("Added webpush subscription", "app", req.AppName, "subscriptionID", subID, "pushEndpoint", req.PushEndpoint, "encrypted", webPush.HasEncryption())

	util.WriteJSON(w, h.logger, http.StatusCreated, map[string]string{
		"appName":        req.AppName,
		"channel":        subscription.ChannelWebPush.String(),
		"subscriptionId": subID,
	})
}

func (h *Handlers) HandleUnregister(w http.ResponseWriter, r *http.Request) {
	subscriptionID := chi.URLParam(r, "subscriptionId")
	if subscriptionID == "" {
		util.JSONError(w, "subscriptionId is required", http.StatusBadRequest)
		return
	}

	sub, err := h.store.GetSubscription(subscriptionID)
	if errors.Is(err, subscription.ErrNotFound) || (err == nil && sub.Channel != subscription.ChannelWebPush) {
		util.JSONError(w, "Subscription not found", http.StatusNotFound)
		return
	}
	if err != nil {
		util.LogAndError(w, h.logger, "Failed to get subscription", http.StatusInternalServerError, err, "subscriptionID", subscriptionID)
		return
	}

	if err := h.store.DeleteSubscription(subscriptionID); err != nil {
		util.LogAndError(w, h.logger, "Failed to delete subscription", http.StatusInternalServerError, err, "subscriptionID", subscriptionID)
		return
	}

	h.logger.Info("Deleted webpush subscription", "app", sub.AppName, "subscriptionID", subscriptionID)

	util.WriteJSON(w, h.logger, http.StatusOK, map[string]string{
		"status":         "deleted",
		"subscriptionId": subscriptionID,
	})
}
