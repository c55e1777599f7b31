package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/tally-backend/internal/platform/ctxutil"
)

const headerRequestID = "X-Request-Id"

// RequestContext assigns every request an id, honouring a caller-supplied X-Request-Id
// so connector retries can be correlated, and links it to the active span.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.NewString()
		}

		req := &ctxutil.Request{ID: reqID}
		span := trace.SpanFromContext(c.Request.Context())
		if sc := span.SpanContext(); sc.HasTraceID() {
			req.TraceID = sc.TraceID().String()
			span.SetAttributes(attribute.String("request.id", reqID))
		}

		c.Request = c.Request.WithContext(ctxutil.WithRequest(c.Request.Context(), req))
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}
