package interceptors

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"handicraft-marketplace/backend/internal/platform/logging"
)

// LoggingUnary returns a unary server interceptor that logs one line per RPC. Failed RPCs with a
// server-side code (Internal, Unavailable, Unknown) log at error, everything else at debug.
// skipMethods are not logged (e.g. health checks).
func LoggingUnary(log logrus.FieldLogger, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	log = logging.OrDiscard(log)
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if skipMethods[info.FullMethod] {
			return resp, err
		}
		code := status.Code(err)
		entry := log.WithFields(logrus.Fields{
			"method":      info.FullMethod,
			"code":        code.String(),
			"duration_ms": time.Since(start).Milliseconds(),
			"client_ip":   ClientIP(ctx),
		})
		if userID := ActorID(ctx); userID != "" {
			entry = entry.WithField("user_id", userID)
		}
		switch code {
		case codes.Internal, codes.Unavailable, codes.Unknown, codes.DataLoss:
			entry.WithError(err).Error("rpc failed")
		default:
			entry.Debug("rpc")
		}
		return resp, err
	}
}

// ClientIP returns the client IP from gRPC metadata (x-forwarded-for, x-real-ip) or peer, or "unknown".
func ClientIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("x-forwarded-for"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				if i := strings.Index(s, ","); i > 0 {
					s = strings.TrimSpace(s[:i])
				}
				return s
			}
		}
		if vals := md.Get("x-real-ip"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				return s
			}
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}
	return "unknown"
}
