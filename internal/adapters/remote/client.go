package remote

import (
	"context"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client is an artifact cache tier backed by a remote cache server.
type Client struct {
	conn     *grpc.ClientConn
	readOnly bool
}

// Dial connects to the cache server at addr.
// grpc.NewClient returns immediately; the connection is made on the first call.
func Dial(addr string, readOnly bool, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(MaxArtifactSize),
			grpc.MaxCallSendMsgSize(MaxArtifactSize),
		),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "cache client creation failed"), "addr", addr)
	}
	return &Client{conn: conn, readOnly: readOnly}, nil
}

// Name identifies the cache.
func (c *Client) Name() string {
	return "remote"
}

// Fetch downloads the artifact under key to dst.
func (c *Client) Fetch(ctx context.Context, key domain.RuleKey, dst string) domain.CacheResult {
	out := new(wrapperspb.BytesValue)
	err := c.conn.Invoke(ctx, fetchMethod, wrapperspb.String(key.String()), out)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.Miss(c.Name())
		}
		return domain.CacheErr(c.Name(), err)
	}
	if err := writeAtomic(dst, out.GetValue()); err != nil {
		return domain.CacheErr(c.Name(), err)
	}
	return domain.Hit(c.Name())
}

// Store uploads the artifact src under key.
func (c *Client) Store(ctx context.Context, key domain.RuleKey, src string) error {
	if c.readOnly {
		return domain.ErrCacheReadOnly
	}
	//nolint:gosec // Path is an artifact produced by kiln
	data, err := os.ReadFile(src)
	if err != nil {
		return zerr.Wrap(err, domain.ErrFileOpenFailed.Error())
	}
	ctx = metadata.AppendToOutgoingContext(ctx, keyHeader, key.String())
	if err := c.conn.Invoke(ctx, storeMethod, wrapperspb.Bytes(data), new(emptypb.Empty)); err != nil {
		return zerr.With(zerr.Wrap(err, "remote store failed"), "key", key.String())
	}
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func writeAtomic(dst string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), domain.DirPerm); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".fetch-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
