package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const redacted = "[REDACTED]"

// redactor rewrites log fields before they reach zap. A nil redactor passes fields through.
type redactor struct {
	salt string
}

func (r *redactor) kvs(kv []interface{}) []interface{} {
	if r == nil || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		name := toString(kv[i])
		out = append(out, name, r.value(strings.ToLower(strings.TrimSpace(name)), kv[i+1]))
	}
	return out
}

func (r *redactor) value(key string, val interface{}) interface{} {
	switch {
	case isSecretKey(key):
		return redacted
	case isIdentityKey(key):
		return r.hash(val)
	}
	switch v := val.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = r.value(strings.ToLower(strings.TrimSpace(k)), inner)
		}
		return out
	case string:
		if looksLikeJWT(v) {
			return redacted
		}
	}
	return val
}

func (r *redactor) hash(val interface{}) string {
	raw := toString(val)
	if raw == "" {
		return ""
	}
	h := sha256.New()
	_, _ = h.Write([]byte(r.salt))
	_, _ = h.Write([]byte(raw))
	return "hash:" + hex.EncodeToString(h.Sum(nil))[:12]
}

func isSecretKey(key string) bool {
	for _, frag := range []string{"token", "authorization", "password", "secret", "api_key", "dsn"} {
		if strings.Contains(key, frag) {
			return true
		}
	}
	return false
}

// Contributor ids and audit actors are messaging-platform identities, usually phone numbers.
func isIdentityKey(key string) bool {
	return strings.Contains(key, "contributor_id") || key == "actor" || key == "subject"
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
