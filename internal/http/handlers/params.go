package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tally-backend/internal/platform/apierr"
)

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apierr.InvalidRequest("invalid body: %v", err)
	}
	return nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierr.InvalidRequest("%s must be an integer", key)
	}
	return n, nil
}

func queryTime(c *gin.Context, key string) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return time.Time{}, apierr.InvalidRequest("%s is required", key)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apierr.InvalidRequest("%s must be RFC3339", key)
	}
	return t.UTC(), nil
}

func paramInt64(c *gin.Context, key string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(c.Param(key)), 10, 64)
	if err != nil {
		return 0, apierr.InvalidRequest("%s must be an integer", key)
	}
	return n, nil
}
