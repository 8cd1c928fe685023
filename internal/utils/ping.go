package utils

import (
	"fmt"
	"net"
	"time"
)

// Default ports by database type, used when DB_PORT is empty
var defaultPorts = map[string]string{
	"mysql":      "3306",
	"mariadb":    "3306",
	"postgres":   "5432",
	"postgresql": "5432",
	"sqlserver":  "1433",
	"mssql":      "1433",
}

// PingService checks if a TCP service is reachable at host:port
func PingService(host, port string, timeout time.Duration) error {
	address := net.JoinHostPort(host, port)

	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	defer conn.Close()

	return nil
}

// PingDatabase checks that a network database server accepts connections.
// File based databases have nothing to dial and always pass.
func PingDatabase(dbType, host, port string) error {
	fallback, networked := defaultPorts[dbType]
	if !networked {
		return nil
	}
	if port == "" {
		port = fallback
	}
	return PingService(host, port, 1500*time.Millisecond)
}
