package middleware

import (
	"context"
	"net"
	"net/http"
)

type contextKey string

const clientKeyKey contextKey = "client_key"

// Identify stores the client IP as the key requests are counted under.
// Mount it after chi's RealIP so proxies are honoured.
func Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(SetClientKey(r.Context(), clientIP(r.RemoteAddr))))
	})
}

func SetClientKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, clientKeyKey, key)
}

func GetClientKey(r *http.Request) (string, bool) {
	key, ok := r.Context().Value(clientKeyKey).(string)
	return key, ok && key != ""
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
