package sessionmodule

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kodiview/kodiview/internal/utils"
)

// SessionCookie is the cookie carrying the opaque session key.
const SessionCookie = "kodiview_session"

const sessionCookieMaxAge = int(365 * 24 * time.Hour / time.Second)

// SessionKey returns the caller's session key, issuing a fresh one via
// Set-Cookie when the request has none.
func SessionKey(c *gin.Context) string {
	key, err := c.Cookie(SessionCookie)
	if err == nil && key != "" {
		return key
	}
	key = utils.GenerateUUID()
	c.SetCookie(SessionCookie, key, sessionCookieMaxAge, "/", "", false, true)
	return key
}

// RegisterRoutes registers the device management endpoints.
func (m *Module) RegisterRoutes(router *gin.Engine) {
	devices := router.Group("/api/devices")
	{
		devices.GET("", m.handleListDevices)
		devices.GET("/current", m.handleCurrentDevice)
		devices.POST("/:id/select", m.handleSelectDevice)
		devices.GET("/:id/test", m.handleTestDevice)
	}
}

func (m *Module) handleListDevices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"devices": m.manager.Devices(),
	})
}

func (m *Module) handleCurrentDevice(c *gin.Context) {
	key := SessionKey(c)
	view, err := m.manager.CurrentDevice(key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no devices configured"})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (m *Module) handleSelectDevice(c *gin.Context) {
	deviceID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}

	key := SessionKey(c)
	view, err := m.manager.SelectDevice(c.Request.Context(), key, deviceID)
	if err != nil {
		if errors.Is(err, ErrUnknownDevice) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown device"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (m *Module) handleTestDevice(c *gin.Context) {
	deviceID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}

	info, state, err := m.manager.TestDevice(c.Request.Context(), deviceID)
	if err != nil {
		if errors.Is(err, ErrUnknownDevice) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown device"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"reachable":  false,
			"connection": state,
			"error":      err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reachable":  true,
		"version":    info,
		"connection": state,
	})
}
