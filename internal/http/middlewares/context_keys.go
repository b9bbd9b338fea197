package middlewares

const (
	ctxUserIDKey  = "auth.userID"
	ctxRequestID  = "request_id"
	requestHeader = "X-Request-Id"
)
