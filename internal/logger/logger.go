package logger

import (
	"fmt"
	"time"
)

// ANSI colors. Terminals that don't support them just show the raw codes,
// which is acceptable for a local dev tool.
const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	gray   = "\033[90m"
	bold   = "\033[1m"
)

func stamp() string {
	return time.Now().Format("15:04:05")
}

func line(color, level, tag, msg string) {
	fmt.Printf("%s%s%s %s%-5s%s %s[%s]%s %s\n", gray, stamp(), reset, color, level, reset, bold, tag, reset, msg)
}

// Info logs an informational message with a component tag.
func Info(tag, msg string) {
	line(cyan, "INFO", tag, msg)
}

// Success logs a success message.
func Success(tag, msg string) {
	line(green, "OK", tag, msg)
}

// Warn logs a warning.
func Warn(tag, msg string) {
	line(yellow, "WARN", tag, msg)
}

// Error logs an error.
func Error(tag, msg string) {
	line(red, "ERROR", tag, msg)
}

// Banner prints the startup banner.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	fmt.Printf("%s%s\n", bold, cyan)
	fmt.Println("  ┌─────────────────────────────────────┐")
	fmt.Println("  │  coldroute — transport optimizer    │")
	fmt.Printf("  │  version %-26s │\n", version)
	fmt.Println("  └─────────────────────────────────────┘")
	fmt.Print(reset)
}

// Section prints a section divider.
func Section(name string) {
	fmt.Printf("%s── %s %s\n", gray, name, reset)
}

// Stats prints a key/value stat line.
func Stats(key string, value interface{}) {
	fmt.Printf("%s   %s:%s %v\n", gray, key, reset, value)
}

// Server logs the listen address at startup.
func Server(addr string) {
	Success("Server", fmt.Sprintf("Listening on http://%s", addr))
}
