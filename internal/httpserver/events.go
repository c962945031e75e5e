package httpserver

import (
	"io"

	"github.com/gin-gonic/gin"
)

// streamHandler sends the current snapshot, then one event per change,
// until the client goes away or closing is closed.
func streamHandler[T any](closing <-chan struct{}, subscribe func() (<-chan T, func()), current func() T) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch, cancel := subscribe()
		defer cancel()

		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		c.SSEvent("snapshot", current())
		c.Writer.Flush()

		done := c.Request.Context().Done()
		c.Stream(func(w io.Writer) bool {
			select {
			case <-done:
				return false
			case <-closing:
				return false
			case snap, ok := <-ch:
				if !ok {
					return false
				}
				c.SSEvent("snapshot", snap)
				return true
			}
		})
	}
}
