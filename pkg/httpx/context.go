package httpx

type ctxKey string

const (
	// CtxKeyUserID carries the authenticated account id once the session
	// middleware has resolved the cookie.
	CtxKeyUserID ctxKey = "user_id"
	// CtxKeySession carries the resolved session value.
	CtxKeySession ctxKey = "session"
	// CtxKeyAccount carries the resolved account value.
	CtxKeyAccount ctxKey = "account"
)
