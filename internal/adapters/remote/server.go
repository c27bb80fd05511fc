package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"net"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// BlobStore is the storage behind a cache server.
type BlobStore interface {
	// Open returns the artifact under key. Absence satisfies errors.Is(err, fs.ErrNotExist).
	Open(key domain.RuleKey) (io.ReadCloser, error)
	// Put stores the artifact read from r under key.
	Put(key domain.RuleKey, r io.Reader) error
}

// Server serves a BlobStore over gRPC.
type Server struct {
	store      BlobStore
	logger     ports.Logger
	lifecycle  *Lifecycle
	grpcServer *grpc.Server
}

// NewServer creates a server. lifecycle may be nil.
func NewServer(store BlobStore, logger ports.Logger, lifecycle *Lifecycle) *Server {
	if lifecycle == nil {
		lifecycle = NewLifecycle(0)
	}
	s := &Server{
		store:     store,
		logger:    logger,
		lifecycle: lifecycle,
		grpcServer: grpc.NewServer(
			grpc.MaxRecvMsgSize(MaxArtifactSize),
			grpc.MaxSendMsgSize(MaxArtifactSize),
		),
	}
	s.grpcServer.RegisterService(&serviceDesc, s)
	return s
}

// Serve accepts connections on lis until ctx is done or the lifecycle expires.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.grpcServer.GracefulStop()
		return nil
	case <-s.lifecycle.Done():
		s.logger.Info("cache server idle, shutting down")
		s.grpcServer.GracefulStop()
		return nil
	case err := <-errCh:
		return zerr.Wrap(err, "cache server failed")
	}
}

// Stop stops the server immediately.
func (s *Server) Stop() {
	s.grpcServer.Stop()
}

// Fetch implements the Fetch RPC.
func (s *Server) Fetch(_ context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	s.lifecycle.Touch()
	key, err := domain.ParseRuleKey(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	r, err := s.store.Open(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, status.Error(codes.NotFound, key.String())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	s.logger.Debug("served artifact " + key.String())
	return wrapperspb.Bytes(data), nil
}

// Store implements the Store RPC.
func (s *Server) Store(ctx context.Context, req *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	s.lifecycle.Touch()
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get(keyHeader)
	if len(values) != 1 {
		return nil, status.Error(codes.InvalidArgument, "missing "+keyHeader)
	}
	key, err := domain.ParseRuleKey(values[0])
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.store.Put(key, bytes.NewReader(req.GetValue())); err != nil {
		if errors.Is(err, domain.ErrCacheReadOnly) {
			return nil, status.Error(codes.PermissionDenied, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	s.logger.Debug("stored artifact " + key.String())
	return &emptypb.Empty{}, nil
}
