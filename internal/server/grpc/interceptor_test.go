package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/abidm-bit/riceKrispies/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type recordingLogger struct {
	msgs []string
	args [][]any
}

func (l *recordingLogger) Debug(_ context.Context, msg string, args ...any) {
	l.msgs = append(l.msgs, msg)
	l.args = append(l.args, args)
}
func (l *recordingLogger) Info(context.Context, string, ...any)  {}
func (l *recordingLogger) Warn(context.Context, string, ...any)  {}
func (l *recordingLogger) Error(context.Context, string, ...any) {}
func (l *recordingLogger) With(...any) logging.Logger             { return l }

func TestLoggingInterceptor_PassesThroughAndLogs(t *testing.T) {
	log := &recordingLogger{}
	s := NewHealthServer("", &fakeStore{}, time.Hour, log)

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	h := func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	}

	resp, err := s.loggingInterceptor(context.Background(), nil, info, h)
	if err != nil || resp != "ok" {
		t.Fatalf("unexpected result: %v, %v", resp, err)
	}
	if len(log.msgs) != 1 || log.msgs[0] != "grpc call" {
		t.Fatalf("expected one log line, got %v", log.msgs)
	}
	if log.args[0][1] != info.FullMethod || log.args[0][3] != "OK" {
		t.Fatalf("unexpected log args: %v", log.args[0])
	}
}

func TestLoggingInterceptor_KeepsError(t *testing.T) {
	log := &recordingLogger{}
	s := NewHealthServer("", &fakeStore{}, time.Hour, log)

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	want := status.Error(codes.NotFound, "unknown service")
	h := func(ctx context.Context, req any) (any, error) { return nil, want }

	_, err := s.loggingInterceptor(context.Background(), nil, info, h)
	if err != want {
		t.Fatalf("error not passed through: %v", err)
	}
	if log.args[0][3] != "NotFound" {
		t.Fatalf("unexpected code logged: %v", log.args[0][3])
	}
}
