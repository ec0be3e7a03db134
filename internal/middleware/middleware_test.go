package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/towerduel/internal/testutil"
)

func TestLoggingCapturesStatusAndSize(t *testing.T) {
	var captured *ResponseWriter
	h := Logging(testutil.NopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = w.(*ResponseWriter)
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	require.NotNil(t, captured)
	assert.Equal(t, http.StatusTeapot, captured.Status())
	assert.Equal(t, len("short and stout"), captured.Size())
}

func TestHijackFailsWithoutHijacker(t *testing.T) {
	rw := &ResponseWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}

	_, _, err := rw.Hijack()
	assert.Error(t, err)
	assert.Equal(t, http.StatusOK, rw.Status())
}

func TestHijackPassesThrough(t *testing.T) {
	hijacked := make(chan bool, 1)
	h := Logging(testutil.NopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			hijacked <- false
			return
		}
		conn, buf, err := hj.Hijack()
		if err != nil {
			hijacked <- false
			return
		}
		defer func() { _ = conn.Close() }()
		_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Length: 0\r\nConnection: close\r\n\r\n")
		_ = buf.Flush()
		hijacked <- true
	}))

	server := httptest.NewServer(h)
	defer server.Close()

	conn, err := net.Dial("tcp", server.Listener.Addr().String())
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	_, err = conn.Write([]byte("GET / HTTP/1.1\r\nHost: test\r\n\r\n"))
	require.NoError(t, err)

	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, <-hijacked)
}

func TestRecoveryInvokesPanicHandler(t *testing.T) {
	var got any
	h := Recovery(testutil.NopLogger(), func(w http.ResponseWriter, r *http.Request, err any) {
		got = err
		w.WriteHeader(http.StatusInternalServerError)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "boom", got)
}

func TestRecoveryRepanicsAbortHandler(t *testing.T) {
	called := false
	h := Recovery(testutil.NopLogger(), func(w http.ResponseWriter, r *http.Request, err any) {
		called = true
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.False(t, called)
}

func TestRecoverySkipsHandlerAfterPartialWrite(t *testing.T) {
	called := false
	h := Recovery(testutil.NopLogger(), func(w http.ResponseWriter, r *http.Request, err any) {
		called = true
		w.WriteHeader(http.StatusInternalServerError)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("partial"))
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "partial", rr.Body.String())
}

func TestRecoveryAfterHijackOnlyLogs(t *testing.T) {
	logger, logs := testutil.CaptureLogger()
	called := make(chan bool, 1)
	h := Recovery(logger, func(w http.ResponseWriter, r *http.Request, err any) {
		called <- true
	})(Logging(testutil.NopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			_ = conn.Close()
		}
		panic("after upgrade")
	})))

	server := httptest.NewServer(h)
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err == nil {
		_ = resp.Body.Close()
	}
	assert.Error(t, err)

	assert.Eventually(t, func() bool {
		return strings.Contains(logs.String(), `"upgraded":true`)
	}, time.Second, 5*time.Millisecond)
	select {
	case <-called:
		t.Fatal("panic handler ran on a hijacked connection")
	default:
	}
}
