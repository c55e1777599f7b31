package ctxutil

import "context"

type requestKey struct{}

// Request identifies one inbound call across logs and traces.
type Request struct {
	ID      string
	TraceID string
}

func WithRequest(ctx context.Context, r *Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

func GetRequest(ctx context.Context) *Request {
	if r, ok := ctx.Value(requestKey{}).(*Request); ok {
		return r
	}
	return nil
}

// LogFields returns the request id, trace id and authenticated subject carried by ctx as
// logger key/value pairs. Empty values are omitted.
func LogFields(ctx context.Context) []interface{} {
	if ctx == nil {
		return nil
	}
	var out []interface{}
	if r := GetRequest(ctx); r != nil {
		if r.ID != "" {
			out = append(out, "request_id", r.ID)
		}
		if r.TraceID != "" {
			out = append(out, "trace_id", r.TraceID)
		}
	}
	if p := GetPrincipal(ctx); p != nil && p.Subject != "" {
		out = append(out, "subject", p.Subject, "role", p.Role)
	}
	return out
}
