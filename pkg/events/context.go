package events

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/Alijeyrad/medcenter_backend/pkg/reqctx"
)

const HeaderRequestID = "Request-Id"

func requestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	return reqctx.RequestIDFromContext(ctx)
}

// HandlerContext rebuilds a context for a subscriber, restoring the request
// id of the publishing request so worker logs correlate with it.
func HandlerContext(parent context.Context, msg *nats.Msg) context.Context {
	if msg.Header == nil {
		return parent
	}
	rid := msg.Header.Get(HeaderRequestID)
	if rid == "" {
		return parent
	}
	return reqctx.WithRequestMeta(parent, &reqctx.RequestMeta{RequestID: rid})
}
