package context

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

const (
	RequestIDKey = "request_id"

	fiberRequestIDKey = "X-Request-ID"
	unknownRequestID  = "unknown"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok && id != "" {
		return id
	}
	return unknownRequestID
}

// FromFiberCtx carries the request id assigned by the middleware into a
// service-layer context so repository and collaborator logs correlate.
func FromFiberCtx(c *fiber.Ctx) context.Context {
	requestID, _ := c.Locals(fiberRequestIDKey).(string)
	if requestID == "" {
		requestID = c.Get(fiberRequestIDKey)
	}
	if requestID == "" {
		requestID = unknownRequestID
	}

	return WithRequestID(context.Background(), requestID)
}
