// Package grpc provides the gRPC service through which nodes fetch the key
// definitions of each other's sorted indexes.
package grpc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/arkilian/sortedkeys/internal/exchange"
	"github.com/arkilian/sortedkeys/internal/index"
)

const (
	serviceName     = "arkilian.keys.KeyExchange"
	getKeySetMethod = "/" + serviceName + "/GetKeySet"
	requestIDHeader = "x-request-id"
)

// KeyExchangeServer is the server API of the key exchange service.
type KeyExchangeServer interface {
	GetKeySet(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
}

// KeyExchangeServiceDesc describes the key exchange service for grpc.Server.
var KeyExchangeServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*KeyExchangeServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetKeySet",
			Handler:    getKeySetHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "arkilian/keys.proto",
}

func getKeySetHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KeyExchangeServer).GetKeySet(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: getKeySetMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(KeyExchangeServer).GetKeySet(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterKeyExchangeServer registers srv on s.
func RegisterKeyExchangeServer(s grpc.ServiceRegistrar, srv KeyExchangeServer) {
	s.RegisterService(&KeyExchangeServiceDesc, srv)
}

// KeyServer serves the key sets held in a registry.
type KeyServer struct {
	registry *index.Registry
	opts     exchange.Options
	logger   logrus.FieldLogger
}

// NewKeyServer creates a key exchange server.
func NewKeyServer(registry *index.Registry, opts exchange.Options, logger logrus.FieldLogger) *KeyServer {
	return &KeyServer{
		registry: registry,
		opts:     opts,
		logger:   logger,
	}
}

// GetKeySet returns the exchange frame of the requested index.
func (s *KeyServer) GetKeySet(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	start := time.Now()
	requestID := extractRequestID(ctx)
	name := req.GetValue()

	log := s.logger.WithFields(logrus.Fields{
		"action":     "get_key_set",
		"request_id": requestID,
		"index":      name,
	})

	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "index name is required")
	}

	set, ok := s.registry.Get(name)
	if !ok {
		log.Debug("index not registered")
		return nil, status.Errorf(codes.NotFound, "index %q is not registered", name)
	}

	frame, err := exchange.Encode(name, set, s.opts)
	if err != nil {
		log.WithError(err).Error("failed to encode key set")
		return nil, status.Errorf(codes.Internal, "failed to encode key set: %v", err)
	}

	log.WithFields(logrus.Fields{
		"columns":     set.Len(),
		"frame_bytes": len(frame),
		"took":        time.Since(start),
	}).Debug("served key set")

	return wrapperspb.Bytes(frame), nil
}

// extractRequestID extracts or generates a request ID from the gRPC context.
func extractRequestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(requestIDHeader); len(ids) > 0 {
			return ids[0]
		}
	}
	return uuid.New().String()
}
