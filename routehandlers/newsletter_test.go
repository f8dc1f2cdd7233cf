package routehandlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fishandtips/newsletter/dispatch"
	"github.com/fishandtips/newsletter/session"
	"github.com/fishandtips/newsletter/webutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	personalized []string
	welcomed     []string
	confirmed    []string
	bulkCalls    int
	sendResult   bool
	bulkResult   dispatch.BulkResult
	bulkErr      error
}

func (f *fakeDispatcher) SendPersonalized(_ context.Context, userID string) bool {
	f.personalized = append(f.personalized, userID)
	return f.sendResult
}

func (f *fakeDispatcher) SendWelcome(_ context.Context, userID string) bool {
	f.welcomed = append(f.welcomed, userID)
	return f.sendResult
}

func (f *fakeDispatcher) SendPreferencesConfirmation(_ context.Context, userID string) bool {
	f.confirmed = append(f.confirmed, userID)
	return f.sendResult
}

func (f *fakeDispatcher) SendToAllRegardlessOfCadence(_ context.Context) (dispatch.BulkResult, error) {
	f.bulkCalls++
	return f.bulkResult, f.bulkErr
}

func userSession(admin bool) *session.Session {
	return &session.Session{UserID: "u1", Email: "mario@example.com", FirstName: "Mario", Admin: admin}
}

func doSend(t *testing.T, dispatcher *fakeDispatcher, sess *session.Session, body string) *httptest.ResponseRecorder {
	t.Helper()
	handler := webutil.MakeHandler(NewNewsletterHandler(dispatcher).HandleSend)

	req := httptest.NewRequest(http.MethodPost, "/api/newsletter/send", strings.NewReader(body))
	if sess != nil {
		req = req.WithContext(session.NewContext(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleSend_Personal(t *testing.T) {
	dispatcher := &fakeDispatcher{sendResult: true}
	rec := doSend(t, dispatcher, userSession(false), `{"type":"personal"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"u1"}, dispatcher.personalized, "personal defaults to the session user")

	var resp struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestHandleSend_PersonalSkipped(t *testing.T) {
	dispatcher := &fakeDispatcher{sendResult: false}
	rec := doSend(t, dispatcher, userSession(false), `{"type":"personal"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
}

func TestHandleSend_TargetingOthersIsAdminOnly(t *testing.T) {
	dispatcher := &fakeDispatcher{sendResult: true}
	rec := doSend(t, dispatcher, userSession(false), `{"type":"personal","userId":"u2"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, dispatcher.personalized)

	rec = doSend(t, dispatcher, userSession(true), `{"type":"personal","userId":"u2"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"u2"}, dispatcher.personalized)
}

func TestHandleSend_BulkRequiresAdmin(t *testing.T) {
	dispatcher := &fakeDispatcher{bulkResult: dispatch.BulkResult{Success: 3, Failed: 1}}

	rec := doSend(t, dispatcher, userSession(false), `{"type":"bulk"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, dispatcher.bulkCalls)

	rec = doSend(t, dispatcher, userSession(true), `{"type":"bulk"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, dispatcher.bulkCalls)

	var resp struct {
		Result dispatch.BulkResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Result.Success)
	assert.Equal(t, 1, resp.Result.Failed)
}

func TestHandleSend_BulkFailureIsGeneric500(t *testing.T) {
	dispatcher := &fakeDispatcher{bulkErr: errors.New("db exploded: password=hunter2")}
	rec := doSend(t, dispatcher, userSession(true), `{"type":"bulk"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hunter2", "internals must never leak to the client")
}

func TestHandleSend_UnknownType(t *testing.T) {
	rec := doSend(t, &fakeDispatcher{}, userSession(false), `{"type":"carrier-pigeon"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSend_NoSession(t *testing.T) {
	rec := doSend(t, &fakeDispatcher{}, nil, `{"type":"personal"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleSend_Welcome(t *testing.T) {
	dispatcher := &fakeDispatcher{sendResult: true}
	rec := doSend(t, dispatcher, userSession(false), `{"type":"welcome"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"u1"}, dispatcher.welcomed)
}

func TestHandleSendTest(t *testing.T) {
	dispatcher := &fakeDispatcher{sendResult: true}
	handler := webutil.MakeHandler(NewNewsletterHandler(dispatcher).HandleSendTest)

	req := httptest.NewRequest(http.MethodGet, "/api/newsletter/send?test=true", nil)
	req = req.WithContext(session.NewContext(req.Context(), userSession(false)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"u1"}, dispatcher.personalized)

	var resp struct {
		Success bool `json:"success"`
		User    struct {
			ID        string `json:"id"`
			Email     string `json:"email"`
			FirstName string `json:"firstName"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Equal(t, "Mario", resp.User.FirstName)
}

func TestHandleSendTest_MissingFlag(t *testing.T) {
	handler := webutil.MakeHandler(NewNewsletterHandler(&fakeDispatcher{}).HandleSendTest)

	req := httptest.NewRequest(http.MethodGet, "/api/newsletter/send", nil)
	req = req.WithContext(session.NewContext(req.Context(), userSession(false)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
