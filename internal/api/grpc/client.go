package grpc

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	arkerrors "github.com/arkilian/sortedkeys/internal/errors"
	"github.com/arkilian/sortedkeys/internal/exchange"
	"github.com/arkilian/sortedkeys/internal/index"
)

// RemoteKeySet is the reduced view of another node's index key set.
type RemoteKeySet struct {
	Index       string
	Keys        *index.KeySet
	Fingerprint uint64
}

// KeyClient fetches key sets from remote nodes.
type KeyClient struct {
	conn grpc.ClientConnInterface
}

// NewKeyClient creates a client on an existing connection.
func NewKeyClient(conn grpc.ClientConnInterface) *KeyClient {
	return &KeyClient{conn: conn}
}

// Dial opens a plaintext connection to a peer's key exchange endpoint.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, arkerrors.NewTransportError(arkerrors.CodeUnavailable, fmt.Sprintf("key client: dial %s", addr), err)
	}
	return conn, nil
}

// FetchKeySet retrieves and decodes the key set of the named index.
func (c *KeyClient) FetchKeySet(ctx context.Context, name string) (*RemoteKeySet, error) {
	ctx = metadata.AppendToOutgoingContext(ctx, requestIDHeader, uuid.New().String())

	out := new(wrapperspb.BytesValue)
	if err := c.conn.Invoke(ctx, getKeySetMethod, wrapperspb.String(name), out); err != nil {
		return nil, transportError(name, err)
	}

	remoteName, set, err := exchange.Decode(out.GetValue())
	if err != nil {
		return nil, fmt.Errorf("key client: index %q: %w", name, err)
	}
	if remoteName != name {
		return nil, arkerrors.NewEncodingError(arkerrors.CodeMalformedFrame,
			fmt.Sprintf("key client: asked for index %q, got %q", name, remoteName))
	}

	fp, err := exchange.Fingerprint(set)
	if err != nil {
		return nil, arkerrors.NewInternalError("key client: fingerprint", err)
	}

	return &RemoteKeySet{Index: remoteName, Keys: set, Fingerprint: fp}, nil
}

// transportError maps a gRPC status to an ArkilianError.
func transportError(name string, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return arkerrors.NewTransportError(arkerrors.CodeIndexNotFound,
			fmt.Sprintf("key client: index %q not found on peer", name), err)
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return arkerrors.NewTransportError(arkerrors.CodeUnavailable,
			fmt.Sprintf("key client: fetch %q", name), err)
	default:
		return arkerrors.NewInternalError(fmt.Sprintf("key client: fetch %q", name), err)
	}
}
