package grpcserver

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	userv1 "userManagement/api/user/v1"
	"userManagement/internal/config"
	"userManagement/internal/testutil"
	"userManagement/repository"
)

// dialBufconn serves a full server over an in-process listener and returns a client connection.
func dialBufconn(t *testing.T, name string) *grpc.ClientConn {
	t.Helper()
	users := repository.NewUserRepository(testutil.OpenInMemoryDB(t, name))
	cfg := &config.Config{GRPC: config.GRPCConfig{RequestTimeout: 5 * time.Second}}
	srv, _ := NewServer(cfg, users, zap.NewNop())

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestEndToEnd_Scenario(t *testing.T) {
	client := userv1.NewUserServiceClient(dialBufconn(t, "e2e_scenario"))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ins, err := client.Insert(ctx, &userv1.InsertRequest{Username: "alice", Email: "a@x.com", Password: "pw1"})
	if err != nil || ins.GetId() != "1" {
		t.Fatalf("Insert: %+v err=%v", ins, err)
	}
	q, err := client.Query(ctx, &userv1.QueryRequest{Search: "alice"})
	if err != nil || q.GetId() != "1" || q.GetEmail() != "a@x.com" || q.GetPassword() != "pw1" {
		t.Fatalf("Query: %+v err=%v", q, err)
	}
	upd, err := client.Update(ctx, &userv1.UpdateRequest{Id: "1", Username: "alice2", Email: "a2@x.com", Password: "pw2"})
	if err != nil || upd.GetId() != "1" {
		t.Fatalf("Update: %+v err=%v", upd, err)
	}
	q, err = client.Query(ctx, &userv1.QueryRequest{Search: "1"})
	if err != nil || q.GetUsername() != "alice2" {
		t.Fatalf("Query after update: %+v err=%v", q, err)
	}
	del, err := client.Delete(ctx, &userv1.DeleteRequest{Id: "1"})
	if err != nil || !del.GetSuccess() {
		t.Fatalf("Delete: %+v err=%v", del, err)
	}
	q, err = client.Query(ctx, &userv1.QueryRequest{Search: "alice2"})
	if err != nil || q.GetId() != "-1" || q.GetUsername() != "" {
		t.Fatalf("Query after delete: %+v err=%v", q, err)
	}

	_, err = client.Delete(ctx, &userv1.DeleteRequest{Id: "not-a-number"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("Delete invalid id: expected InvalidArgument, got %v", err)
	}
}

func TestEndToEnd_RequestIDHeader(t *testing.T) {
	client := userv1.NewUserServiceClient(dialBufconn(t, "e2e_reqid"))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var header metadata.MD
	ctx = metadata.AppendToOutgoingContext(ctx, RequestIDHeader, "trace-42")
	if _, err := client.Query(ctx, &userv1.QueryRequest{Search: "x"}, grpc.Header(&header)); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got := header.Get(RequestIDHeader); len(got) != 1 || got[0] != "trace-42" {
		t.Fatalf("request id not echoed: %v", header)
	}
}

func TestEndToEnd_HealthCheck(t *testing.T) {
	hc := healthpb.NewHealthClient(dialBufconn(t, "e2e_health"))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, svc := range []string{"", userv1.UserService_ServiceDesc.ServiceName} {
		resp, err := hc.Check(ctx, &healthpb.HealthCheckRequest{Service: svc})
		if err != nil || resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("health %q: %+v err=%v", svc, resp, err)
		}
	}
}

func TestStartGRPC_ListenAndShutdown(t *testing.T) {
	users := repository.NewUserRepository(testutil.OpenInMemoryDB(t, "start_grpc"))
	cfg := &config.Config{GRPC: config.GRPCConfig{Address: "127.0.0.1:0", Reflection: true}}

	addr, shutdown, err := StartGRPC(cfg, users, zap.NewNop())
	if err != nil {
		t.Fatalf("StartGRPC: %v", err)
	}

	conn, err := grpc.NewClient(addr.String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ins, err := userv1.NewUserServiceClient(conn).Insert(ctx, &userv1.InsertRequest{Username: "bob", Email: "b@x.com", Password: "pw"})
	if err != nil || ins.GetId() != "1" {
		t.Fatalf("Insert over tcp: %+v err=%v", ins, err)
	}

	_ = conn.Close()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestStartGRPC_RequiresConfig(t *testing.T) {
	if _, _, err := StartGRPC(nil, nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
