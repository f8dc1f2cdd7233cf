// Package routehandlers contains the HTTP handlers behind the session
// middleware.
package routehandlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fishandtips/newsletter/dispatch"
	"github.com/fishandtips/newsletter/session"
	"github.com/fishandtips/newsletter/webutil"
)

// Send types accepted by POST /api/newsletter/send.
const (
	sendTypePersonal    = "personal"
	sendTypeBulk        = "bulk"
	sendTypeWelcome     = "welcome"
	sendTypePreferences = "preferences"
)

// Dispatcher is the dispatch surface the newsletter endpoints drive.
type Dispatcher interface {
	SendPersonalized(ctx context.Context, userID string) bool
	SendWelcome(ctx context.Context, userID string) bool
	SendPreferencesConfirmation(ctx context.Context, userID string) bool
	SendToAllRegardlessOfCadence(ctx context.Context) (dispatch.BulkResult, error)
}

type NewsletterHandler struct {
	dispatcher Dispatcher
}

func NewNewsletterHandler(dispatcher Dispatcher) *NewsletterHandler {
	return &NewsletterHandler{dispatcher: dispatcher}
}

// HandleSend dispatches a send by type. Personal/welcome/preferences
// default to the session user; targeting another user, and the bulk
// send, are admin-only.
func (h *NewsletterHandler) HandleSend(w http.ResponseWriter, r *http.Request) error {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		return webutil.ErrUnauthorized("")
	}

	var requestData struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestData); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	targetID := requestData.UserID
	if targetID == "" {
		targetID = sess.UserID
	}
	if targetID != sess.UserID && !sess.Admin {
		return webutil.ErrForbidden("Only admins can target other users")
	}

	switch requestData.Type {
	case sendTypePersonal:
		sent := h.dispatcher.SendPersonalized(r.Context(), targetID)
		respondSendResult(w, sent, "Newsletter inviata", "Newsletter non inviata")

	case sendTypeWelcome:
		sent := h.dispatcher.SendWelcome(r.Context(), targetID)
		respondSendResult(w, sent, "Email di benvenuto inviata", "Email di benvenuto non inviata")

	case sendTypePreferences:
		sent := h.dispatcher.SendPreferencesConfirmation(r.Context(), targetID)
		respondSendResult(w, sent, "Conferma preferenze inviata", "Conferma preferenze non inviata")

	case sendTypeBulk:
		if !sess.Admin {
			return webutil.ErrForbidden("Bulk send is admin-only")
		}
		result, err := h.dispatcher.SendToAllRegardlessOfCadence(r.Context())
		if err != nil {
			return fmt.Errorf("bulk send failed: %w", err)
		}
		webutil.RespondWithJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Invio bulk completato",
			"result":  result,
		})

	default:
		return webutil.ErrBadRequest("Unknown send type: " + requestData.Type)
	}

	return nil
}

// HandleSendTest implements GET /api/newsletter/send?test=true: a
// personalized send for the calling user, for on-demand verification.
func (h *NewsletterHandler) HandleSendTest(w http.ResponseWriter, r *http.Request) error {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		return webutil.ErrUnauthorized("")
	}
	if r.URL.Query().Get("test") != "true" {
		return webutil.ErrBadRequest("Missing test=true query parameter")
	}

	sent := h.dispatcher.SendPersonalized(r.Context(), sess.UserID)
	message := "Newsletter di test inviata"
	if !sent {
		message = "Newsletter di test non inviata"
	}

	webutil.RespondWithJSON(w, http.StatusOK, map[string]any{
		"success": sent,
		"message": message,
		"user": map[string]string{
			"id":        sess.UserID,
			"email":     sess.Email,
			"firstName": sess.FirstName,
		},
	})
	return nil
}

func respondSendResult(w http.ResponseWriter, sent bool, okMessage, skipMessage string) {
	message := okMessage
	if !sent {
		message = skipMessage
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]any{
		"success": sent,
		"message": message,
		"result":  map[string]bool{"sent": sent},
	})
}
