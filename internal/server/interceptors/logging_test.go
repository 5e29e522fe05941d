package interceptors

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"handicraft-marketplace/backend/internal/platform/logging"
)

func TestLoggingUnary(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithOutput("debug", "json", &buf)
	interceptor := LoggingUnary(log, map[string]bool{"/grpc.health.v1.Health/Check": true})

	ctx := WithIdentity(context.Background(), "user-1", "")
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: protectedMethod}, func(context.Context, interface{}) (interface{}, error) {
		return nil, status.Error(codes.Unavailable, "db down")
	})
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"user_id":"user-1"`)
	assert.Contains(t, buf.String(), `"code":"Unavailable"`)

	buf.Reset()
	_, _ = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, func(context.Context, interface{}) (interface{}, error) {
		return nil, errors.New("boom")
	})
	assert.Empty(t, buf.String())
}

func TestClientIP(t *testing.T) {
	testCases := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"forwarded chain", metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-forwarded-for", "203.0.113.7, 10.0.0.1")), "203.0.113.7"},
		{"real ip", metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-real-ip", "198.51.100.2")), "198.51.100.2"},
		{"peer", peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.ParseIP("192.0.2.1"), Port: 5000}}), "192.0.2.1"},
		{"unknown", context.Background(), "unknown"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClientIP(tc.ctx))
		})
	}
}
