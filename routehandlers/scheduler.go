package routehandlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fishandtips/newsletter/scheduler"
	"github.com/fishandtips/newsletter/session"
	"github.com/fishandtips/newsletter/webutil"
)

const (
	schedulerActionTest  = "test"
	schedulerActionStats = "stats"
)

// SchedulerControl is the scheduler surface exposed over HTTP.
type SchedulerControl interface {
	RunNow(ctx context.Context) error
	Stats(ctx context.Context) ([]scheduler.RunStats, error)
}

type SchedulerHandler struct {
	control SchedulerControl
}

func NewSchedulerHandler(control SchedulerControl) *SchedulerHandler {
	return &SchedulerHandler{control: control}
}

// HandleAction implements POST /api/scheduler/test. The "test" action
// (a manual weekly run) mutates state and is admin-only; "stats" is not.
func (h *SchedulerHandler) HandleAction(w http.ResponseWriter, r *http.Request) error {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		return webutil.ErrUnauthorized("")
	}

	var requestData struct {
		Action string `json:"action"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestData); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	switch requestData.Action {
	case schedulerActionTest:
		if !sess.Admin {
			return webutil.ErrForbidden("Scheduler test run is admin-only")
		}
		if err := h.control.RunNow(r.Context()); err != nil {
			return fmt.Errorf("scheduler test run failed: %w", err)
		}
		webutil.RespondWithJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"result":  "weekly run completed",
		})

	case schedulerActionStats:
		stats, err := h.control.Stats(r.Context())
		if err != nil {
			return fmt.Errorf("failed to load scheduler stats: %w", err)
		}
		webutil.RespondWithJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"result":  stats,
		})

	default:
		return webutil.ErrBadRequest("Unknown scheduler action: " + requestData.Action)
	}

	return nil
}

// HandleStats implements GET /api/scheduler/test.
func (h *SchedulerHandler) HandleStats(w http.ResponseWriter, r *http.Request) error {
	if _, ok := session.FromContext(r.Context()); !ok {
		return webutil.ErrUnauthorized("")
	}

	stats, err := h.control.Stats(r.Context())
	if err != nil {
		return fmt.Errorf("failed to load scheduler stats: %w", err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   stats,
		"message": fmt.Sprintf("%d scheduled runs recorded", len(stats)),
	})
	return nil
}
