//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	api "github.com/oshokin/alarm-scheduler/internal/api/grpc/alarm"
	"github.com/oshokin/alarm-scheduler/internal/config"
	domain "github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	statsrepo "github.com/oshokin/alarm-scheduler/internal/repository/stats"
)

// Client wraps the admin gRPC client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the alarm server.
	conn *grpc.ClientConn
	// api is the typed admin API client.
	api *api.SchedulerClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// dialOptions are appended to the default dial options.
	dialOptions []grpc.DialOption
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithDialOptions adds gRPC dial options, e.g. a custom dialer in tests.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *Client) {
		c.dialOptions = append(c.dialOptions, opts...)
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errIDRequired is returned when an alarm id is missing.
	errIDRequired = errors.New("alarm id must be provided")
)

// Dial creates a gRPC client for the alarm server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	client := &Client{
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	dialOptions := append(
		[]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())},
		client.dialOptions...,
	)

	conn, err := grpc.NewClient(address, dialOptions...)
	if err != nil {
		return nil, fmt.Errorf("dial alarm server: %w", err)
	}

	client.conn = conn
	client.api = api.NewSchedulerClient(conn)

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Schedule creates a notification alarm and returns its id.
func (c *Client) Schedule(ctx context.Context, delay time.Duration, message string) (string, error) {
	request, err := structpb.NewStruct(map[string]any{
		api.FieldDelayMillis: delay.Milliseconds(),
		api.FieldMessage:     message,
	})
	if err != nil {
		return "", fmt.Errorf("build schedule request: %w", err)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.Schedule(callCtx, request)
	if err != nil {
		return "", fmt.Errorf("schedule alarm: %w", err)
	}

	return response.GetFields()[api.FieldID].GetStringValue(), nil
}

// Cancel cancels a pending alarm and reports whether it was still pending.
func (c *Client) Cancel(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, errIDRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.Cancel(callCtx, wrapperspb.String(id))
	if err != nil {
		return false, fmt.Errorf("cancel alarm: %w", err)
	}

	return response.GetValue(), nil
}

// Reschedule re-arms an alarm. A nil delay reuses its latest delay.
func (c *Client) Reschedule(ctx context.Context, id string, delay *time.Duration) error {
	if id == "" {
		return errIDRequired
	}

	fields := map[string]any{api.FieldID: id}
	if delay != nil {
		fields[api.FieldDelayMillis] = delay.Milliseconds()
	}

	request, err := structpb.NewStruct(fields)
	if err != nil {
		return fmt.Errorf("build reschedule request: %w", err)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.Reschedule(callCtx, request); err != nil {
		return fmt.Errorf("reschedule alarm: %w", err)
	}

	return nil
}

// Stats retrieves the scheduler stats snapshot.
func (c *Client) Stats(ctx context.Context) (*domain.Stats, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.Stats(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	stats, err := statsrepo.FromStruct(response)
	if err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}

	return stats, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
