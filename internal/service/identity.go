package service

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Метаданные, из которых берётся идентичность вызывающего.
const (
	AuthorizationHeader = "authorization"
	UserIDHeader        = "x-user-id"
)

type userIDKey struct{}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext возвращает идентификатор пользователя или пустую строку.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// IdentityInterceptor кладёт идентификатор пользователя в контекст.
// С секретом берётся sub из JWT (HS256) в authorization: Bearer. Без секрета берётся x-user-id.
// Отсутствие идентичности не ошибка: методы, которым она нужна, откажут сами.
func IdentityInterceptor(secret string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)

		var (
			userID string
			err    error
		)
		if secret != "" {
			userID, err = subjectFromBearer(first(md, AuthorizationHeader), secret)
			if err != nil {
				return nil, status.Error(codes.Unauthenticated, "invalid bearer token")
			}
		} else {
			userID = strings.TrimSpace(first(md, UserIDHeader))
		}

		if userID != "" {
			ctx = WithUserID(ctx, userID)
		}
		return handler(ctx, req)
	}
}

func subjectFromBearer(header, secret string) (string, error) {
	if header == "" {
		return "", nil
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", jwt.ErrTokenMalformed
	}

	token, err := jwt.Parse(strings.TrimSpace(raw), func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	return token.Claims.GetSubject()
}

func first(md metadata.MD, key string) string {
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
