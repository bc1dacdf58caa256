package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Identity headers. Authentication happens upstream; the service trusts
// these values as the active user and the calling device.
const (
	HeaderUserID   = "X-User-ID"
	HeaderDeviceID = "X-Device-ID"

	ctxKeyUserID   = "userID"
	ctxKeyDeviceID = "deviceID"
)

// Identity stores the active user and device in the Gin context. A missing
// device header resolves to defaultDevice; a missing user stays empty and
// handlers reject the request.
func Identity(defaultDevice string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := strings.TrimSpace(c.GetHeader(HeaderUserID)); uid != "" {
			c.Set(ctxKeyUserID, uid)
		}
		dev := strings.TrimSpace(c.GetHeader(HeaderDeviceID))
		if dev == "" {
			dev = defaultDevice
		}
		if dev != "" {
			c.Set(ctxKeyDeviceID, dev)
		}
		c.Next()
	}
}

// UserID returns the active user, or "" when none was sent.
func UserID(c *gin.Context) string { return c.GetString(ctxKeyUserID) }

// DeviceID returns the calling device, or "" when neither the header nor a
// default supplied one.
func DeviceID(c *gin.Context) string { return c.GetString(ctxKeyDeviceID) }
