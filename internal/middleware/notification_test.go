package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stitchworks/capline/internal/planning/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturingHandler struct {
	seen []event.Notification
}

func (h *capturingHandler) Handle(n event.Notification) error {
	h.seen = append(h.seen, n)
	return nil
}

func notificationRouter(h event.Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NotificationBoundary(zap.NewNop(), h))
	collect := func(c *gin.Context) {
		ctx := c.Request.Context()
		event.FromContext(ctx).Collect(ctx, event.New(event.ScheduleCommitted, "acme", c.Query("agg"), nil))
	}
	r.POST("/ok", func(c *gin.Context) {
		collect(c)
		c.JSON(http.StatusOK, gin.H{"code": 0})
	})
	r.POST("/boom", func(c *gin.Context) {
		collect(c)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50000})
	})
	return r
}

func TestNotificationBoundaryFlushesOnSuccess(t *testing.T) {
	h := &capturingHandler{}
	r := notificationRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ok?agg=s1", nil))

	require.Len(t, h.seen, 1)
	assert.Equal(t, "s1", h.seen[0].AggregateID)
}

func TestNotificationBoundaryDiscardsOnFailure(t *testing.T) {
	h := &capturingHandler{}
	r := notificationRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/boom?agg=s1", nil))

	assert.Empty(t, h.seen, "failed request must not leak notifications")
}

// A failed request must not drag down what another request collected:
// each request gets its own buffer, so a rollback in one never discards
// or delivers the other's notifications.
func TestNotificationBoundaryScopesBufferPerRequest(t *testing.T) {
	h := &capturingHandler{}
	r := notificationRouter(h)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/boom?agg=fail", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/ok?agg=win", nil))

	require.Len(t, h.seen, 1)
	assert.Equal(t, "win", h.seen[0].AggregateID)
}
