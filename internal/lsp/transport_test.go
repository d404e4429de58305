package lsp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func frame(t *testing.T, method string, id int, params interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	idRaw, err := json.Marshal(id)
	require.NoError(t, err)
	req := Request{JSONRPC: "2.0", ID: idRaw, Method: method, Params: raw}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return []byte(fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body))
}

func notificationFrame(t *testing.T, method string, params interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	req := Request{JSONRPC: "2.0", Method: method, Params: raw}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return []byte(fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body))
}

func TestServeDispatchesRegisteredHandler(t *testing.T) {
	s := NewServer()
	s.Handle("ping", func(ctx context.Context, params json.RawMessage) (interface{}, *ResponseError) {
		return map[string]string{"pong": "ok"}, nil
	})

	in := bytes.NewReader(frame(t, "ping", 1, nil))
	var out bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Serve(ctx, in, &out)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return on EOF")
	}
	cancel()

	require.Contains(t, out.String(), `"pong":"ok"`)
	require.Contains(t, out.String(), "Content-Length:")
}

func TestServeUnknownMethodReturnsMethodNotFound(t *testing.T) {
	s := NewServer()
	in := bytes.NewReader(frame(t, "nonexistent", 1, nil))
	var out bytes.Buffer
	s.Serve(context.Background(), in, &out)

	require.Contains(t, out.String(), fmt.Sprintf("%d", ErrMethodNotFound))
}

func TestServeNotificationGetsNoResponse(t *testing.T) {
	s := NewServer()
	called := make(chan struct{}, 1)
	s.HandleNotification("textDocument/didOpen", func(ctx context.Context, params json.RawMessage) {
		called <- struct{}{}
	})

	in := bytes.NewReader(notificationFrame(t, "textDocument/didOpen", nil))
	var out bytes.Buffer
	s.Serve(context.Background(), in, &out)

	require.Empty(t, out.String())
	select {
	case <-called:
	default:
		t.Fatal("notification handler was not invoked")
	}
}

func TestServeRecoversFromHandlerPanic(t *testing.T) {
	s := NewServer()
	s.Handle("boom", func(ctx context.Context, params json.RawMessage) (interface{}, *ResponseError) {
		panic("kaboom")
	})

	in := bytes.NewReader(frame(t, "boom", 1, nil))
	var out bytes.Buffer
	s.Serve(context.Background(), in, &out)

	require.Contains(t, out.String(), fmt.Sprintf("%d", ErrInternal))
}

func TestReadFrameRejectsMissingContentLength(t *testing.T) {
	s := NewServer()
	in := bytes.NewReader([]byte("\r\n{}"))
	var out bytes.Buffer
	err := s.Serve(context.Background(), in, &out)
	require.Error(t, err)
}
