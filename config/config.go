// Package config exposes process configuration for the identra backend:
// environment-driven settings plus the immutable identity options handed to
// the web server at startup.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("IDENTRA_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("IDENTRA_DEBUG") == "true"
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("IDENTRA_DB_FOLDER")
	if dbFolderPath == "" {
		dbFolderPath = "/etc/identra"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("IDENTRA_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "/var/log"
	}
	return logFolderPath
}

func GetListen() string {
	return os.Getenv("IDENTRA_WEB_LISTEN")
}

func GetPort() int {
	port, err := strconv.Atoi(os.Getenv("IDENTRA_WEB_PORT"))
	if err != nil || port <= 0 || port > 65535 {
		return 8080
	}
	return port
}

// GetWebDomain returns the host the server answers for. Empty disables the
// host allow-list middleware.
func GetWebDomain() string {
	return os.Getenv("IDENTRA_WEB_DOMAIN")
}

func GetCertFile() string {
	return os.Getenv("IDENTRA_CERT_FILE")
}

func GetKeyFile() string {
	return os.Getenv("IDENTRA_KEY_FILE")
}

// GetCookieSecret returns the key used to sign session cookies. Empty means
// the server generates an ephemeral one at boot.
func GetCookieSecret() string {
	return os.Getenv("IDENTRA_COOKIE_SECRET")
}

// GetOptionsFile returns the path of the optional TOML options file.
func GetOptionsFile() string {
	path := os.Getenv("IDENTRA_OPTIONS_FILE")
	if path == "" {
		path = "identra.toml"
	}
	return path
}
