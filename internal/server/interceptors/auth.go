package interceptors

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"handicraft-marketplace/backend/internal/platform/logging"
	"handicraft-marketplace/backend/internal/security"
)

const bearerPrefix = "bearer "

// TokenVerifier resolves an access token to the caller identity.
type TokenVerifier interface {
	Verify(token string) (security.Identity, error)
}

// AuthUnary returns a unary server interceptor that validates the Bearer access token and sets
// user_id and session_id in context. Methods in publicMethods also accept anonymous callers
// (missing or invalid token); the handler then sees no identity. A nil verifier treats every
// caller as anonymous.
func AuthUnary(verifier TokenVerifier, publicMethods map[string]bool, log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	log = logging.OrDiscard(log)
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		public := publicMethods[info.FullMethod]
		token := extractBearer(ctx)

		if token == "" || verifier == nil {
			if public {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
		}

		id, err := verifier.Verify(token)
		if err != nil {
			log.WithField("method", info.FullMethod).Debug("auth: rejected access token")
			if public {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
		}

		return handler(WithIdentity(ctx, id.UserID, id.SessionID), req)
	}
}

// extractBearer returns the Bearer token from ctx metadata, or "" if missing or malformed.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
