package handlers

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/chimera/backend/internal/version"
)

// getLocalIP returns the first non-loopback IPv4 address of the host.
func getLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String()
		}
	}
	return ""
}

// HealthHandler responds with build metadata for uptime checks.
func HealthHandler(c *gin.Context) {
	info := version.Current()
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"service":     info.Service,
		"version":     info.Version,
		"git_commit":  info.GitCommit,
		"build_time":  info.BuildTime,
		"internal_ip": getLocalIP(),
	})
}
