package common

import "context"

// SessionInfo is the per-request identity resolved from the session store.
type SessionInfo struct {
	Token    string `json:"-"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

type ctxKey string

const sessionKey ctxKey = "session/info"

// WithSession stores the resolved session on the provided context.
func WithSession(ctx context.Context, info SessionInfo) context.Context {
	return context.WithValue(ctx, sessionKey, info)
}

// SessionFrom extracts the session from the context if present.
func SessionFrom(ctx context.Context) (SessionInfo, bool) {
	v := ctx.Value(sessionKey)
	if v == nil {
		return SessionInfo{}, false
	}
	info, ok := v.(SessionInfo)
	return info, ok
}
