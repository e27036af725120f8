package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsimlabs/egs/internal/core/domain"
)

func postJSON(t *testing.T, handler http.HandlerFunc, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestHandleLampSendsFrameAndStoresState(t *testing.T) {
	gw := &fakeGateway{}
	lamps := newFakeLamps()
	h := NewGatewayHandler(gw, lamps)

	w := postJSON(t, h.HandleLamp, "/api/lamp", map[string]any{
		"device": "B", "lamp": 3, "state": "on",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, gw.frames, 1)
	assert.Equal(t, domain.Frame("Bf"), gw.frames[0])

	// device B lamp 3 is flat id 12
	on, err := lamps.GetLamp(12)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestHandleLampFlash(t *testing.T) {
	gw := &fakeGateway{}
	h := NewGatewayHandler(gw, newFakeLamps())

	w := postJSON(t, h.HandleLamp, "/api/lamp", map[string]any{
		"device": "a", "lamp": 1, "state": "on", "flash": true,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, gw.frames, 1)
	assert.Equal(t, domain.Frame("Ab#"), gw.frames[0])
}

func TestHandleLampRejectsBadInput(t *testing.T) {
	gw := &fakeGateway{}
	h := NewGatewayHandler(gw, newFakeLamps())

	cases := []map[string]any{
		{"device": "Z", "lamp": 1, "state": "on"},
		{"device": "A", "lamp": 0, "state": "on"},
		{"device": "A", "lamp": 10, "state": "off"},
		{"device": "A", "lamp": 1, "state": "blink"},
	}
	for _, payload := range cases {
		w := postJSON(t, h.HandleLamp, "/api/lamp", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	assert.Empty(t, gw.frames)
}

func TestHandleAllStoresWholeDevice(t *testing.T) {
	gw := &fakeGateway{}
	lamps := newFakeLamps()
	h := NewGatewayHandler(gw, lamps)

	w := postJSON(t, h.HandleAll, "/api/all", map[string]any{
		"device": "C", "state": "on",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, gw.frames, 1)
	assert.Equal(t, domain.Frame("C*"), gw.frames[0])
	for id := 19; id <= 27; id++ {
		on, _ := lamps.GetLamp(id)
		assert.True(t, on, "lamp %d", id)
	}
}

func TestHandleMaskValidation(t *testing.T) {
	gw := &fakeGateway{}
	h := NewGatewayHandler(gw, newFakeLamps())

	w := postJSON(t, h.HandleMask, "/api/mask", map[string]any{
		"device": "A", "mask": "1ff",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, gw.frames, 1)
	assert.Equal(t, domain.Frame("AM1FF"), gw.frames[0])

	w = postJSON(t, h.HandleMask, "/api/mask", map[string]any{
		"device": "A", "mask": "200",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, gw.frames, 1)
}

func TestHandleRouteValidation(t *testing.T) {
	gw := &fakeGateway{}
	h := NewGatewayHandler(gw, newFakeLamps())

	w := postJSON(t, h.HandleRoute, "/api/route", map[string]any{
		"device": "D", "route": 5,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, gw.frames, 1)
	assert.Equal(t, domain.Frame("DR5"), gw.frames[0])

	w = postJSON(t, h.HandleRoute, "/api/route", map[string]any{
		"device": "D", "route": 10,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleLampControlFlatID(t *testing.T) {
	gw := &fakeGateway{}
	lamps := newFakeLamps()
	h := NewGatewayHandler(gw, lamps)

	w := postJSON(t, h.HandleLampControl, "/api/gateway/lamp-control", map[string]any{
		"lamp_id": 97, "state": true,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, gw.frames, 1)
	assert.Equal(t, domain.Frame("Kn"), gw.frames[0])
	assert.Contains(t, w.Body.String(), `"success":true`)

	on, _ := lamps.GetLamp(97)
	assert.True(t, on)
}

func TestHandleLampControlOutOfRange(t *testing.T) {
	gw := &fakeGateway{}
	h := NewGatewayHandler(gw, newFakeLamps())

	w := postJSON(t, h.HandleLampControl, "/api/gateway/lamp-control", map[string]any{
		"lamp_id": 127, "state": true,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, gw.frames)
}

func TestHandleLampControlFailureDoesNotStore(t *testing.T) {
	gw := &fakeGateway{failAll: true}
	lamps := newFakeLamps()
	h := NewGatewayHandler(gw, lamps)

	w := postJSON(t, h.HandleLampControl, "/api/gateway/lamp-control", map[string]any{
		"lamp_id": 5, "state": true,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	on, _ := lamps.GetLamp(5)
	assert.False(t, on)
}

func TestHandleHealthShape(t *testing.T) {
	h := NewGatewayHandler(&fakeGateway{}, newFakeLamps())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var snap domain.HealthSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.True(t, snap.GatewayConnected)
	assert.Equal(t, "connected", snap.ConnectionStatus)
	assert.Contains(t, snap.DeviceStatus, "A")
}

func TestHandleLampByID(t *testing.T) {
	lamps := newFakeLamps()
	lamps.SetLamp(97, true)
	h := NewGatewayHandler(&fakeGateway{}, lamps)

	req := httptest.NewRequest(http.MethodGet, "/api/lamps/97", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "97"})
	w := httptest.NewRecorder()
	h.HandleLampByID(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ID       int    `json:"id"`
		Device   string `json:"device"`
		Position int    `json:"position"`
		IsOn     bool   `json:"is_on"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 97, resp.ID)
	assert.Equal(t, "K", resp.Device)
	assert.Equal(t, 7, resp.Position)
	assert.True(t, resp.IsOn)

	req = httptest.NewRequest(http.MethodGet, "/api/lamps/127", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "127"})
	w = httptest.NewRecorder()
	h.HandleLampByID(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleLampsListsAll(t *testing.T) {
	lamps := newFakeLamps()
	lamps.SetLamp(42, true)
	h := NewGatewayHandler(&fakeGateway{}, lamps)

	req := httptest.NewRequest(http.MethodGet, "/api/lamps", nil)
	w := httptest.NewRecorder()
	h.HandleLamps(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Lamps []struct {
			ID   int  `json:"id"`
			IsOn bool `json:"is_on"`
		} `json:"lamps"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Lamps, domain.MaxLampID)
	assert.Equal(t, 1, resp.Lamps[0].ID)
	assert.True(t, resp.Lamps[41].IsOn)
	assert.False(t, resp.Lamps[40].IsOn)
}
