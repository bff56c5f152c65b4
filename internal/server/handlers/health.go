// Package handlers contains HTTP request handlers organized by functionality.
package handlers

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kodiview/kodiview/internal/database"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

var startTime = time.Now()

// HandleHealthCheck returns the basic health status of the service
func HandleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "kodiview",
		"uptime":  time.Since(startTime).Round(time.Second).String(),
	})
}

// HandleDBStatus checks and returns the database connection status
func HandleDBStatus(c *gin.Context) {
	if err := database.HealthCheck(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "connected",
		"database": "ready",
	})
}

// HandleSystemInfo returns host and process resource usage for the
// diagnostics panel. Metrics that cannot be read are omitted rather than
// failing the whole response.
func HandleSystemInfo(c *gin.Context) {
	info := gin.H{
		"goroutines": runtime.NumGoroutine(),
		"go_version": runtime.Version(),
		"uptime":     time.Since(startTime).Round(time.Second).String(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		info["memory"] = gin.H{
			"total_bytes": vm.Total,
			"used_bytes":  vm.Used,
			"percent":     vm.UsedPercent,
		}
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		info["cpu_percent"] = percents[0]
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		procInfo := gin.H{}
		if memInfo, err := proc.MemoryInfo(); err == nil {
			procInfo["rss_bytes"] = memInfo.RSS
		}
		if cpuPercent, err := proc.CPUPercent(); err == nil {
			procInfo["cpu_percent"] = cpuPercent
		}
		info["process"] = procInfo
	}

	c.JSON(http.StatusOK, info)
}

// HandleConnectionPoolStats returns database connection pool statistics
func HandleConnectionPoolStats(c *gin.Context) {
	stats, err := database.GetConnectionStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get connection pool stats: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, stats)
}
