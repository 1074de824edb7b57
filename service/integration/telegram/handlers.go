package telegram

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"notibridge/service/subscription"
	"notibridge/service/util"

	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	client *Client
	store  *subscription.Store
	logger *slog.Logger
}

func NewHandlers(client *Client, store *subscription.Store, logger *slog.Logger) *Handlers {
	return &Handlers{
		client: client,
		store:  store,
		logger: logger,
	}
}

type registerRequest struct {
	AppName string `json:"appName" validate:"required,max=128"`
	ChatID  string `json:"chatId" validate:"required"`
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

	chatID, err := strconv.ParseInt(req.ChatID, 10, 64)
	if err != nil || chatID == 0 {
		util.JSONError(w, "chatId must be a non-zero integer", http.StatusBadRequest)
		return
	}

	subID, err := h.store.AddSubscription(subscription.Subscription{
		AppName:  req.AppName,
		Channel:  subscription.ChannelTelegram,
		Telegram: &subscription.TelegramSubscription{ChatID: strconv.FormatInt(chatID, 10)},
	})
	if err != nil {
		util.LogAndError(w, h.logger, "Failed to add subscription", http.StatusInternalServerError, err, "app", req.AppName)
		return
	}

	h.logger.Info("Added telegram subscription", "app", req.AppName, "subscriptionID", subID, "chatID", chatID)

	util.WriteJSON(w, h.logger, http.StatusCreated, map[string]string{
		"appName":        req.AppName,
		"channel":        subscription.ChannelTelegram.String(),
		"subscriptionId": subID,
	})
}

func (h *Handlers) HandleUnregister(w http.ResponseWriter, r *http.Request) {
	subscriptionID := chi.URLParam(r, "subscriptionId")

	sub, err := h.store.GetSubscription(subscriptionID)
	if errors.Is(err, subscription.ErrNotFound) || (err == nil && sub.Channel != subscription.ChannelTelegram) {
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

	h.logger.Info("Deleted telegram subscription", "app", sub.AppName, "subscriptionID", subscriptionID)

	util.WriteJSON(w, h.logger, http.StatusOK, map[string]string{
		"status":         "deleted",
		"subscriptionId": subscriptionID,
	})
}

func (h *Handlers) HandleBot(w http.ResponseWriter, r *http.Request) {
	bot, err := h.client.GetMe(r.Context())
	if err != nil {
		util.LogAndError(w, h.logger, "Telegram bot unavailable", http.StatusBadGateway, err)
		return
	}

	util.WriteJSON(w, h.logger, http.StatusOK, map[string]any{
		"id":       bot.ID,
		"username": bot.Username,
	})
}
