package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/display"
	"github.com/aretw0/funnel/pkg/domain"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	store := memory.NewStore()
	srv := NewServer(func(product, owner string) (*funnel.Funnel, error) {
		return funnel.New(product,
			funnel.WithStore(store),
			funnel.WithOwner(owner),
			funnel.WithDelays(runtime.Delays{}),
		)
	}, WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})))
	t.Cleanup(srv.Close)
	return NewHandler(srv)
}

func call(t *testing.T, h http.Handler, method, path, owner string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if owner != "" {
		req.Header.Set(OwnerHeader, owner)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) JourneyView {
	t.Helper()
	var v JourneyView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// reachPincode answers the health flow up to the pincode checkpoint.
func reachPincode(t *testing.T, h http.Handler, id, owner string) JourneyView {
	t.Helper()
	w := call(t, h, http.MethodPost, "/journeys", owner, StartRequest{Product: "health", JourneyID: id})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	v := decodeView(t, w)

	for _, text := range []string{"Asha", "1", "28"} {
		require.NotNil(t, v.Prompt)
		w = call(t, h, http.MethodPost, "/journeys/"+id+"/respond", owner, RespondRequest{Activation: v.Prompt.Activation, Text: text})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		v = decodeView(t, w)
	}
	require.NotNil(t, v.Prompt)
	require.Equal(t, "family.pincode", v.Prompt.StepID)
	return v
}

func TestHealthAndInfo(t *testing.T) {
	h := newTestServer(t)

	w := call(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = call(t, h, http.MethodGet, "/info", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "funnel-http")

	w = call(t, h, http.MethodGet, "/products", "", nil)
	assert.JSONEq(t, `{"products":["health","life","motor"]}`, w.Body.String())

	w = call(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, "# metrics", w.Body.String())
}

func TestStartAndRespond(t *testing.T) {
	h := newTestServer(t)

	w := call(t, h, http.MethodPost, "/journeys", "", StartRequest{Product: "health", JourneyID: "j1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	v := decodeView(t, w)
	require.NotNil(t, v.Prompt)
	assert.Equal(t, "intro.name", v.Prompt.StepID)
	assert.Equal(t, domain.StatusAwaitingInput, v.State.Status)

	t.Run("same id returns the live journey", func(t *testing.T) {
		w := call(t, h, http.MethodPost, "/journeys", "", StartRequest{Product: "health", JourneyID: "j1"})
		assert.Equal(t, http.StatusOK, w.Code)
		w = call(t, h, http.MethodPost, "/journeys", "", StartRequest{Product: "motor", JourneyID: "j1"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	w = call(t, h, http.MethodPost, "/journeys/j1/respond", "", RespondRequest{Activation: v.Prompt.Activation, Response: "Asha"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	v2 := decodeView(t, w)
	require.NotNil(t, v2.Prompt)
	assert.Equal(t, "family.who_to_cover", v2.Prompt.StepID)
	assert.Equal(t, "Asha", v2.State.Fields["name"])

	t.Run("stale activation", func(t *testing.T) {
		w := call(t, h, http.MethodPost, "/journeys/j1/respond", "", RespondRequest{Activation: v.Prompt.Activation, Response: "Bob"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("text is validated against the widget", func(t *testing.T) {
		w := call(t, h, http.MethodPost, "/journeys/j1/respond", "", RespondRequest{Text: "cousins"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("unknown journey", func(t *testing.T) {
		w := call(t, h, http.MethodGet, "/journeys/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown product", func(t *testing.T) {
		w := call(t, h, http.MethodPost, "/journeys", "", StartRequest{Product: "pets"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/journeys", strings.NewReader("{"))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	w = call(t, h, http.MethodDelete, "/journeys/j1", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = call(t, h, http.MethodGet, "/journeys/j1", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResumeCard(t *testing.T) {
	h := newTestServer(t)
	reachPincode(t, h, "j1", "user-1")

	w := call(t, h, http.MethodGet, "/products/health/resume-card", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var card display.Card
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &card))
	assert.NotEmpty(t, card.Title)

	w = call(t, h, http.MethodGet, "/products/health/resume-card", "user-2", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = call(t, h, http.MethodPost, "/journeys", "user-1", StartRequest{Product: "health", JourneyID: "j2", Resume: true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	v := decodeView(t, w)
	require.NotNil(t, v.Prompt)
	assert.Equal(t, "family.pincode", v.Prompt.StepID)
	assert.Equal(t, "family.pincode", v.State.ResumedFrom)

	w = call(t, h, http.MethodDelete, "/products/health/snapshot", "user-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = call(t, h, http.MethodGet, "/products/health/resume-card", "user-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestEditFlow(t *testing.T) {
	h := newTestServer(t)
	v := reachPincode(t, h, "j1", "")

	var answerID string
	for _, m := range v.State.History {
		if m.Role == domain.RoleUser && m.StepID == "family.who_to_cover" {
			answerID = m.ID
		}
	}
	require.NotEmpty(t, answerID)

	w := call(t, h, http.MethodPost, "/journeys/j1/edits/submit", "", RespondRequest{Response: []string{"self"}})
	assert.Equal(t, http.StatusConflict, w.Code, "submit needs a confirmed edit")

	w = call(t, h, http.MethodPost, "/journeys/j1/edits", "", EditBody{MessageID: answerID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	v = decodeView(t, w)
	require.NotNil(t, v.Edit)
	assert.False(t, v.Edit.Confirmed)
	assert.Equal(t, runtime.EditConfirmation, v.Edit.Confirmation)

	w = call(t, h, http.MethodPost, "/journeys/j1/edits/confirm", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	v = decodeView(t, w)
	require.NotNil(t, v.Edit)
	require.NotNil(t, v.Edit.Prompt)
	assert.True(t, v.Edit.Prompt.Inline)
	assert.Equal(t, "family.pincode", v.Prompt.StepID, "the active prompt is untouched")

	w = call(t, h, http.MethodPost, "/journeys/j1/edits/submit", "", RespondRequest{Text: "1,2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	v = decodeView(t, w)
	assert.Nil(t, v.Edit)
	require.NotNil(t, v.Prompt)
	assert.Equal(t, "family.member_ages", v.Prompt.StepID)
	assert.Len(t, v.Prompt.Script.Options, 2)

	w = call(t, h, http.MethodPost, "/journeys/j1/edits", "", EditBody{MessageID: "missing"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRestart(t *testing.T) {
	h := newTestServer(t)
	reachPincode(t, h, "j1", "")

	w := call(t, h, http.MethodPost, "/journeys/j1/restart", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	v := decodeView(t, w)
	require.NotNil(t, v.Prompt)
	assert.Equal(t, "intro.name", v.Prompt.StepID)
	assert.Empty(t, v.State.Fields)
}

func TestGetGraph(t *testing.T) {
	h := newTestServer(t)
	reachPincode(t, h, "j1", "")

	w := call(t, h, http.MethodGet, "/products/health/graph", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph TD"))

	w = call(t, h, http.MethodGet, "/products/health/graph?journey=j1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "classDef")

	w = call(t, h, http.MethodGet, "/products/health/graph?journey=nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscribeEvents(t *testing.T) {
	h := newTestServer(t)
	ts := httptest.NewServer(h)
	defer ts.Close()

	w := call(t, h, http.MethodPost, "/journeys", "", StartRequest{Product: "health", JourneyID: "j1"})
	require.Equal(t, http.StatusCreated, w.Code)
	v := decodeView(t, w)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/journeys/j1/events?watch=fields", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	w = call(t, h, http.MethodPost, "/journeys/j1/respond", "", RespondRequest{Activation: v.Prompt.Activation, Response: "Asha"})
	require.Equal(t, http.StatusOK, w.Code)

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") {
			break
		}
	}
	var diff domain.StateDiff
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &diff))
	assert.Equal(t, "j1", diff.JourneyID)
	assert.Equal(t, "Asha", diff.Fields["name"])
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("j1")
	sm.Broadcast("j1", "hello")
	sm.Broadcast("j2", "ignored")
	assert.Equal(t, "hello", <-ch)

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	sm.Broadcast("j1", "after close")
}
