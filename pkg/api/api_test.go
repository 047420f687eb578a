package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servolink/servolink-go/pkg/session"
)

type fakeController struct {
	mu        sync.Mutex
	commands  []session.Command
	submitErr error
	status    session.Status
	sources   map[string]bool // name -> accepts input
}

func (f *fakeController) Submit(cmd session.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return f.submitErr
	}
	f.commands = append(f.commands, cmd)
	return nil
}

func (f *fakeController) Status() session.Status { return f.status }
func (f *fakeController) Profile() string         { return f.status.Profile }

func (f *fakeController) SourceNames() []string {
	return []string{"pointer", "static"}
}

func (f *fakeController) Accepts(source string) error {
	accepts, ok := f.sources[source]
	if !ok {
		return fmt.Errorf("%w: %q", session.ErrUnknownSource, source)
	}
	if !accepts {
		return fmt.Errorf("%w: %q", session.ErrReadOnly, source)
	}
	return nil
}

func (f *fakeController) submitted() []session.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]session.Command(nil), f.commands...)
}

type fakePorts []string

func (p fakePorts) ListAuthorizedPorts() []string { return p }

func newTestServer(t *testing.T, ports PortLister) (*fakeController, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctl := &fakeController{
		status: session.Status{
			Open:    true,
			Label:   session.LabelDisconnect,
			Port:    "/dev/ttyACM0",
			Profile: "mouse-led",
			Channels: []session.ChannelStatus{
				{Name: "led1", Value: 10, Target: 10, Max: 255},
				{Name: "led2", Value: 255, Target: 255, Max: 255},
			},
			HasValue: true,
		},
		sources: map[string]bool{"pointer": true, "static": false},
	}
	srv := NewServer(ctl, ports, "test", nil)
	srv.now = func() time.Time { return time.Unix(1700000000, 0) }
	return ctl, NewEngine(srv, nil)
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return w, resp
}

func TestGetStatus(t *testing.T) {
	_, r := newTestServer(t, nil)

	w, resp := do(t, r, http.MethodGet, "/api/status", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusSuccess, resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["open"])
	assert.Equal(t, "Disconnect", data["label"])
	assert.Equal(t, "mouse-led", data["profile"])
	assert.Len(t, data["channels"], 2)
}

func TestGetPorts(t *testing.T) {
	_, r := newTestServer(t, fakePorts{"/dev/ttyACM0", "/dev/ttyUSB1"})

	w, resp := do(t, r, http.MethodGet, "/api/ports", "")
	assert.Equal(t, http.StatusOK, w.Code)

	data := resp.Data.(map[string]any)
	assert.Equal(t, []any{"/dev/ttyACM0", "/dev/ttyUSB1"}, data["authorized"])
	assert.Equal(t, "/dev/ttyACM0", data["current"])
	assert.Equal(t, float64(2), data["total"])
}

func TestGetPortsWithoutLister(t *testing.T) {
	_, r := newTestServer(t, nil)

	_, resp := do(t, r, http.MethodGet, "/api/ports", "")
	data := resp.Data.(map[string]any)
	assert.Equal(t, []any{}, data["authorized"])
	assert.Equal(t, float64(0), data["total"])
}

func TestGetSystem(t *testing.T) {
	_, r := newTestServer(t, nil)

	_, resp := do(t, r, http.MethodGet, "/api/system", "")
	data := resp.Data.(map[string]any)
	assert.Equal(t, "test", data["version"])
	assert.Equal(t, "mouse-led", data["profile"])
	assert.Equal(t, []any{"pointer", "static"}, data["sources"])
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		want session.Command
	}{
		{"connect generic", "/api/connect", "", session.Connect("")},
		{"connect port", "/api/connect", `{"port":"COM3"}`, session.Connect("COM3")},
		{"disconnect", "/api/disconnect", "", session.Disconnect()},
		{"cycle up", "/api/cycle/up", "", session.CycleUp()},
		{"cycle down", "/api/cycle/down", "", session.CycleDown()},
		{"overlay", "/api/overlay", "", session.ToggleOverlay()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl, r := newTestServer(t, nil)

			w, resp := do(t, r, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusAccepted, w.Code)
			assert.Equal(t, StatusSuccess, resp.Status)
			assert.NotEmpty(t, resp.Message)

			cmds := ctl.submitted()
			require.Len(t, cmds, 1)
			assert.Equal(t, tt.want.Kind, cmds[0].Kind)
			assert.Equal(t, tt.want.Port, cmds[0].Port)
			assert.Equal(t, Origin, cmds[0].Origin)
		})
	}
}

func TestCycleInvalidDirection(t *testing.T) {
	ctl, r := newTestServer(t, nil)

	w, resp := do(t, r, http.MethodPost, "/api/cycle/sideways", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "sideways")
	assert.Empty(t, ctl.submitted())
}

func TestConnectInvalidBody(t *testing.T) {
	ctl, r := newTestServer(t, nil)

	w, resp := do(t, r, http.MethodPost, "/api/connect", `{"port":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, StatusError, resp.Status)
	assert.Empty(t, ctl.submitted())
}

func TestSetInput(t *testing.T) {
	ctl, r := newTestServer(t, nil)

	w, _ := do(t, r, http.MethodPost, "/api/inputs/pointer", `{"values":[0.25,0.75],"width":1,"height":1}`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	cmds := ctl.submitted()
	require.Len(t, cmds, 1)
	assert.Equal(t, session.CmdSetInput, cmds[0].Kind)
	assert.Equal(t, "pointer", cmds[0].Source)
	assert.Equal(t, []float64{0.25, 0.75}, cmds[0].Sample.Values)
	assert.Equal(t, 1.0, cmds[0].Sample.Width)
	assert.Equal(t, time.Unix(1700000000, 0), cmds[0].Sample.At)
}

func TestSetInputPoints(t *testing.T) {
	ctl, r := newTestServer(t, nil)

	body := `{"points":[{"x":320,"y":240,"confidence":0.9}],"width":640,"height":480}`
	w, _ := do(t, r, http.MethodPost, "/api/inputs/pointer", body)
	assert.Equal(t, http.StatusAccepted, w.Code)

	cmds := ctl.submitted()
	require.Len(t, cmds, 1)
	require.Len(t, cmds[0].Sample.Points, 1)
	assert.Equal(t, 320.0, cmds[0].Sample.Points[0].X)
	assert.Equal(t, 0.9, cmds[0].Sample.Points[0].Confidence)
}

func TestSetInputErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"unknown source", "/api/inputs/nope", `{"values":[1]}`, http.StatusNotFound},
		{"read only source", "/api/inputs/static", `{"values":[1]}`, http.StatusBadRequest},
		{"bad json", "/api/inputs/pointer", `{"values":`, http.StatusBadRequest},
		{"empty sample", "/api/inputs/pointer", `{}`, http.StatusBadRequest},
		{"out of range number", "/api/inputs/pointer", `{"values":[1e400,1]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl, r := newTestServer(t, nil)

			w, resp := do(t, r, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, StatusError, resp.Status)
			assert.NotEmpty(t, resp.Error)
			assert.Empty(t, ctl.submitted())
		})
	}
}

func TestQueueFull(t *testing.T) {
	ctl, r := newTestServer(t, nil)
	ctl.submitErr = session.ErrQueueFull

	w, resp := do(t, r, http.MethodPost, "/api/overlay", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, session.ErrQueueFull.Error(), resp.Error)
}

func TestCORSPreflight(t *testing.T) {
	_, r := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/overlay", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
