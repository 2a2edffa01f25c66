package config

import (
	_ "embed"
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
	Debug LogLevel = "debug"
	Info  LogLevel = "info"
	Warn  LogLevel = "warn"
	Error LogLevel = "error"
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
	logLevel := os.Getenv("PB_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("PB_DEBUG") == "true"
}

// GetBotToken returns the Telegram bot API token. The process refuses to
// start without it.
func GetBotToken() string {
	return os.Getenv("BOT_TOKEN")
}

// GetTgProxy returns an optional socks5 proxy URL for the Bot API.
func GetTgProxy() string {
	return os.Getenv("TG_PROXY")
}

func GetTgLang() string {
	lang := os.Getenv("PB_LANG")
	if lang == "" {
		return "it"
	}
	return lang
}

// GetPort returns the keep-alive HTTP port, bound on all interfaces.
func GetPort() int {
	port := os.Getenv("PB_PORT")
	if port == "" {
		return 5000
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return 5000
	}
	return p
}

func GetDataFolderPath() string {
	dir := os.Getenv("PB_DATA_FOLDER")
	if dir == "" {
		return "data"
	}
	return dir
}

// GetCpuThreshold returns the CPU alarm threshold in percent, 0 disables
// the alarm job.
func GetCpuThreshold() int {
	threshold := os.Getenv("PB_CPU_THRESHOLD")
	if threshold == "" {
		return 0
	}
	t, err := strconv.Atoi(threshold)
	if err != nil {
		return 0
	}
	return t
}
