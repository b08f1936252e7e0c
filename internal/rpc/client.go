package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/jaivikTh/nest-microsrv-kit/internal/logger"
	"github.com/jaivikTh/nest-microsrv-kit/internal/metrics"
	"github.com/jaivikTh/nest-microsrv-kit/pkg/apierror"
)

// Client sends commands to one backend over a shared connection.
type Client struct {
	target  string
	conn    *grpc.ClientConn
	timeout time.Duration
	metrics *metrics.Metrics
}

// Dial prepares a client for the backend at addr. The connection is made
// lazily on the first call and reused afterwards.
func Dial(target, addr string, timeout time.Duration, m *metrics.Metrics) (*Client, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s at %s: %w", target, addr, err)
	}

	return &Client{target: target, conn: conn, timeout: timeout, metrics: m}, nil
}

// Call sends cmd with payload and decodes the reply into out, which may be nil.
// Every failure is returned as an *apierror.APIError.
func (c *Client) Call(ctx context.Context, cmd string, payload any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return apierror.Internal("Internal server error", fmt.Errorf("encode %s payload: %w", cmd, err))
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if id := logger.RequestIDFromContext(ctx); id != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, requestIDHeader, id)
	}

	var (
		reply   json.RawMessage
		trailer metadata.MD
		start   = time.Now()
	)

	err = c.conn.Invoke(ctx, executeMethod, &Command{Name: cmd, Payload: raw}, &reply, grpc.Trailer(&trailer))
	c.metrics.ObserveRPCCall(c.target, cmd, status.Code(err).String(), time.Since(start))
	if err != nil {
		return fromStatus(err, trailer)
	}

	if out == nil || len(reply) == 0 {
		return nil
	}

	if err := json.Unmarshal(reply, out); err != nil {
		return apierror.Internal("Internal server error", fmt.Errorf("decode %s reply: %w", cmd, err))
	}

	return nil
}

func (c *Client) Target() string {
	return c.target
}

func (c *Client) Close() error {
	return c.conn.Close()
}
