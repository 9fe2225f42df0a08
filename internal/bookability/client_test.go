//go:build protogen

package bookability

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"

	entitlementsv1 "github.com/arefin-anik/docmarket/protos/gen/entitlements/v1"
)

type testServer struct {
	entitlementsv1.UnimplementedBookabilityServiceServer
}

func (s *testServer) CheckBookable(_ context.Context, req *entitlementsv1.CheckBookableRequest) (*entitlementsv1.CheckBookableResponse, error) {
	return &entitlementsv1.CheckBookableResponse{
		Bookable: req.GetDoctorId() == "doc-1",
		AsOf:     time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func TestClient_CheckBookable(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	srv := grpc.NewServer()
	entitlementsv1.RegisterBookabilityServiceServer(srv, &testServer{})

	go func() {
		_ = srv.Serve(lis)
	}()
	defer srv.Stop()

	client, err := NewClient(lis.Addr().String())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := client.CheckBookable(ctx, "doc-1")
	if err != nil {
		t.Fatalf("check bookable: %v", err)
	}
	if !resp.Bookable {
		t.Fatal("expected doc-1 to be bookable")
	}
}
