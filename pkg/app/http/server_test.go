package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/custody-ledger/pkg/config"
)

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() failed: %v", err)
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, ln, newServer(handler, &config.ServerConfig{}), zap.NewNop(), time.Second)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != "OK" {
		t.Fatalf("unexpected body %q", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve() returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve() did not return after cancel")
	}
}

func TestServeAndWait_BindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() failed: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	err = ServeAndWait(context.Background(), http.NotFoundHandler(), zap.NewNop(), &config.ServerConfig{Host: "127.0.0.1", Port: port})
	if err == nil {
		t.Fatal("expected a bind error for a port in use")
	}
}

func TestServeAndWait_RejectsNilArguments(t *testing.T) {
	if err := ServeAndWait(context.Background(), nil, nil, &config.ServerConfig{}); err == nil {
		t.Fatal("expected an error for a nil handler")
	}
	if err := ServeAndWait(context.Background(), http.NotFoundHandler(), nil, nil); err == nil {
		t.Fatal("expected an error for a nil config")
	}
}
