package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shutter-remote/shutter-go/pkg/companion"
	"github.com/shutter-remote/shutter-go/pkg/version"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockController struct {
	mock.Mock
}

func (m *mockController) Status() companion.Status {
	return m.Called().Get(0).(companion.Status)
}

func (m *mockController) TriggerPictureTaken() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func (m *mockController) SetDropAcks(drop bool) {
	m.Called(drop)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := NewServer(Config{Controller: &mockController{}})

	w := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, version.Build, resp.Version)
	assert.Equal(t, version.Current, resp.Protocol)
}

func TestStatus(t *testing.T) {
	due := time.Date(2024, 1, 1, 12, 0, 5, 0, time.UTC)
	ctrl := &mockController{}
	ctrl.On("Status").Return(companion.Status{
		Devices:     1,
		ShotPending: true,
		ShotDue:     due,
		TimerValue:  5,
		Intents:     2,
		Acks:        2,
	}).Once()
	s := NewServer(Config{Controller: ctrl})

	w := do(t, s, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[StatusResponse](t, w)
	assert.Equal(t, 1, resp.Devices)
	require.NotNil(t, resp.Pending)
	assert.Equal(t, 5, resp.Pending.TimerValue)
	assert.True(t, due.Equal(resp.Pending.Due))
	assert.Nil(t, resp.LastIntent)
	assert.Equal(t, uint64(2), resp.Acks)
	ctrl.AssertExpectations(t)
}

func TestStatusIdle(t *testing.T) {
	ctrl := &mockController{}
	ctrl.On("Status").Return(companion.Status{SetupScreen: true, LastIntent: time.Now()})
	s := NewServer(Config{Controller: ctrl})

	resp := decode[StatusResponse](t, do(t, s, http.MethodGet, "/api/status", ""))
	assert.Nil(t, resp.Pending)
	assert.True(t, resp.SetupScreen)
	assert.NotNil(t, resp.LastIntent)
}

func TestPictureTaken(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		err      error
		wantCode int
		wantErr  string
	}{
		{"delivered", 2, nil, http.StatusAccepted, ""},
		{"no device", 0, companion.ErrNoDevice, http.StatusConflict, "no_device"},
		{"failure", 0, errors.New("boom"), http.StatusInternalServerError, "send_failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &mockController{}
			ctrl.On("TriggerPictureTaken").Return(tt.n, tt.err).Once()
			s := NewServer(Config{Controller: ctrl})

			w := do(t, s, http.MethodPost, "/api/picture-taken", "")
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantErr == "" {
				assert.Equal(t, tt.n, decode[PictureTakenResponse](t, w).Delivered)
			} else {
				assert.Equal(t, tt.wantErr, decode[ErrorResponse](t, w).Error)
			}
			ctrl.AssertExpectations(t)
		})
	}
}

func TestAckMode(t *testing.T) {
	ctrl := &mockController{}
	ctrl.On("SetDropAcks", true).Once()
	ctrl.On("SetDropAcks", false).Once()
	s := NewServer(Config{Controller: ctrl})

	w := do(t, s, http.MethodPost, "/api/ack-mode", `{"drop": true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[AckModeResponse](t, w).Drop)

	w = do(t, s, http.MethodPost, "/api/ack-mode", `{"drop": false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[AckModeResponse](t, w).Drop)

	ctrl.AssertExpectations(t)
}

func TestAckModeRejectsBadBodies(t *testing.T) {
	ctrl := &mockController{}
	s := NewServer(Config{Controller: ctrl})

	for _, body := range []string{`{}`, `{"drop": "yes"}`, `not json`} {
		w := do(t, s, http.MethodPost, "/api/ack-mode", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "invalid_request", decode[ErrorResponse](t, w).Error)
	}
	ctrl.AssertNotCalled(t, "SetDropAcks", mock.Anything)
}

func TestUnknownRoute(t *testing.T) {
	s := NewServer(Config{Controller: &mockController{}})
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/picture-taken", "").Code)
}

func TestServeAndShutdown(t *testing.T) {
	ctrl := &mockController{}
	s := NewServer(Config{Controller: ctrl})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, <-done)
}
