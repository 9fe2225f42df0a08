//go:build protogen

package bookability

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/arefin-anik/docmarket/libs/grpcx"
	entitlementsv1 "github.com/arefin-anik/docmarket/protos/gen/entitlements/v1"
)

// Client is the consumer side of the bookability check, used by the search
// indexer and other downstream services.
type Client struct {
	conn   *grpc.ClientConn
	client entitlementsv1.BookabilityServiceClient
}

func NewClient(addr string) (*Client, error) {
	conn, err := grpcx.Dial(context.Background(), addr, grpcx.DialOptions{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		conn:   conn,
		client: entitlementsv1.NewBookabilityServiceClient(conn),
	}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) CheckBookable(ctx context.Context, doctorID string) (*entitlementsv1.CheckBookableResponse, error) {
	return c.client.CheckBookable(ctx, &entitlementsv1.CheckBookableRequest{
		DoctorId: doctorID,
	})
}
