package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	arkerrors "github.com/arkilian/sortedkeys/internal/errors"
	"github.com/arkilian/sortedkeys/internal/exchange"
	"github.com/arkilian/sortedkeys/internal/index"
	"github.com/arkilian/sortedkeys/pkg/types"
)

func testRegistry() *index.Registry {
	r := index.NewRegistry()
	r.Register("idx_tenant_time", index.NewKeySet([]index.KeyColumn{
		{Name: "tenant_id", Def: index.NewKeyDefinition(types.KeyTypeString, index.NewOrder(index.SortAsc, index.NullsFirst), 64)},
		{Name: "event_time", Def: index.NewKeyDefinition(types.KeyTypeTimestamp, index.NewOrder(index.SortDesc, index.NullsLast), 0)},
	}))
	r.Register("idx_broken", index.NewKeySet([]index.KeyColumn{
		{Name: "c", Def: &index.KeyDefinition{}},
	}))
	return r
}

// startServer serves the key exchange on an in-memory listener and returns
// a connected client.
func startServer(t *testing.T, registry *index.Registry) (*KeyClient, *logrustest.Hook) {
	t.Helper()

	logger, hook := logrustest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterKeyExchangeServer(srv, NewKeyServer(registry, exchange.Options{}, logger))
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewKeyClient(conn), hook
}

func TestFetchKeySet(t *testing.T) {
	client, hook := startServer(t, testRegistry())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	remote, err := client.FetchKeySet(ctx, "idx_tenant_time")
	require.NoError(t, err)
	assert.Equal(t, "idx_tenant_time", remote.Index)
	require.Equal(t, 2, remote.Keys.Len())

	tenant := remote.Keys.Column(0)
	assert.Equal(t, "tenant_id", tenant.Name)
	assert.Equal(t, types.KeyTypeString, tenant.Def.Type())
	assert.Equal(t, index.NewOrder(index.SortAsc, index.NullsUnspecified), tenant.Def.Order())
	assert.Equal(t, int32(0), tenant.Def.Precision())

	eventTime := remote.Keys.Column(1)
	assert.Equal(t, types.KeyTypeTimestamp, eventTime.Def.Type())
	assert.Equal(t, index.SortDesc, eventTime.Def.Order().Sort)

	local, _ := testRegistry().Get("idx_tenant_time")
	localFP, err := exchange.Fingerprint(local)
	require.NoError(t, err)
	assert.Equal(t, localFP, remote.Fingerprint)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "served key set", entry.Message)
	assert.Equal(t, "idx_tenant_time", entry.Data["index"])
	assert.NotEmpty(t, entry.Data["request_id"])
}

func TestFetchKeySet_NotFound(t *testing.T) {
	client, _ := startServer(t, testRegistry())

	_, err := client.FetchKeySet(context.Background(), "idx_missing")
	require.Error(t, err)
	assert.Equal(t, arkerrors.ErrCategoryTransport, arkerrors.GetCategory(err))
	assert.Equal(t, arkerrors.CodeIndexNotFound, arkerrors.GetCode(err))
	assert.False(t, arkerrors.IsRetryable(err))
}

func TestFetchKeySet_EncodeFailure(t *testing.T) {
	client, hook := startServer(t, testRegistry())

	_, err := client.FetchKeySet(context.Background(), "idx_broken")
	require.Error(t, err)
	assert.Equal(t, arkerrors.ErrCategoryInternal, arkerrors.GetCategory(err))
	assert.Equal(t, codes.Internal, status.Code(err))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
}

func TestGetKeySet_EmptyName(t *testing.T) {
	logger, _ := logrustest.NewNullLogger()
	srv := NewKeyServer(testRegistry(), exchange.Options{}, logger)

	_, err := srv.GetKeySet(context.Background(), wrapperspb.String(""))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetKeySet_RequestIDFromMetadata(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	srv := NewKeyServer(testRegistry(), exchange.Options{}, logger)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(requestIDHeader, "req-123"))
	_, err := srv.GetKeySet(ctx, wrapperspb.String("idx_tenant_time"))
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "req-123", entry.Data["request_id"])
}

func TestFetchKeySet_PeerDown(t *testing.T) {
	conn, err := Dial("passthrough:///down", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return nil, context.DeadlineExceeded
	}))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err = NewKeyClient(conn).FetchKeySet(ctx, "idx_tenant_time")
	require.Error(t, err)
	assert.True(t, arkerrors.IsRetryable(err), "unreachable peers are retryable, got %v", err)
}
