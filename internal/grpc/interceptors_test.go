package grpcserver

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"userManagement/internal/testutil"
)

func TestRequestIDInterceptor(t *testing.T) {
	interceptor := NewRequestIDInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/svc/Op"}

	// 1) Incoming header is reused.
	ctx := testutil.CtxWithRequestID(context.Background(), "req-123")
	_, err := interceptor(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
		if got := RequestIDFromContext(ctx); got != "req-123" {
			t.Fatalf("request id = %q, want req-123", got)
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}

	// 2) Missing header -> a fresh id is minted per call.
	var first, second string
	for _, dst := range []*string{&first, &second} {
		dst := dst
		_, _ = interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
			*dst = RequestIDFromContext(ctx)
			return nil, nil
		})
	}
	if first == "" || second == "" || first == second {
		t.Fatalf("expected distinct minted ids, got %q and %q", first, second)
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	interceptor := NewRecoveryInterceptor(zap.New(core))

	resp, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Boom"}, func(ctx context.Context, req any) (any, error) {
		panic("boom")
	})
	if resp != nil || status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal after panic, got resp=%v err=%v", resp, err)
	}
	if logs.FilterMessage("panic in handler").Len() != 1 {
		t.Fatalf("expected panic to be logged, got %v", logs.All())
	}
}

func TestTimeoutInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/svc/Op"}

	// Disabled: no deadline added.
	_, _ = NewTimeoutInterceptor(0)(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			t.Fatalf("unexpected deadline with timeout disabled")
		}
		return nil, nil
	})

	// Enabled: deadline within the configured bound.
	_, _ = NewTimeoutInterceptor(time.Second)(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		dl, ok := ctx.Deadline()
		if !ok || time.Until(dl) > time.Second {
			t.Fatalf("expected deadline within 1s, got %v ok=%v", dl, ok)
		}
		return nil, nil
	})

	// An earlier caller deadline is kept.
	parent, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	want, _ := parent.Deadline()
	_, _ = NewTimeoutInterceptor(time.Hour)(parent, nil, info, func(ctx context.Context, req any) (any, error) {
		if dl, _ := ctx.Deadline(); !dl.Equal(want) {
			t.Fatalf("caller deadline replaced: got %v want %v", dl, want)
		}
		return nil, nil
	})
}

func TestLoggingInterceptor(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	interceptor := NewLoggingInterceptor(zap.New(core), healthCheckMethod)
	ctx := WithRequestID(context.Background(), "req-9")

	ok := func(ctx context.Context, req any) (any, error) { return "ok", nil }
	internal := func(ctx context.Context, req any) (any, error) { return nil, status.Error(codes.Internal, "db down") }
	invalid := func(ctx context.Context, req any) (any, error) { return nil, status.Error(codes.InvalidArgument, "bad id") }

	_, _ = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/myapp.UserService/Query"}, ok)
	_, _ = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/myapp.UserService/Insert"}, internal)
	_, _ = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/myapp.UserService/Delete"}, invalid)
	_, _ = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: healthCheckMethod}, ok)

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("expected 4 log entries, got %d: %v", len(entries), entries)
	}
	wantLevels := []zapcore.Level{zapcore.InfoLevel, zapcore.ErrorLevel, zapcore.WarnLevel, zapcore.DebugLevel}
	for i, e := range entries {
		if e.Level != wantLevels[i] {
			t.Fatalf("entry %d level = %v, want %v (%s)", i, e.Level, wantLevels[i], e.Message)
		}
		if e.ContextMap()["request_id"] != "req-9" {
			t.Fatalf("entry %d missing request_id: %v", i, e.ContextMap())
		}
	}
	if entries[1].ContextMap()["code"] != codes.Internal.String() {
		t.Fatalf("unexpected code field: %v", entries[1].ContextMap())
	}
}
