package logger

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// Init configures logrus for the process. DEBUG=true turns on debug level;
// LOG_FORMAT=json switches to JSON output for log shippers.
func Init() {
	level := log.InfoLevel
	if os.Getenv("DEBUG") == "true" {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	if os.Getenv("LOG_FORMAT") == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stdout)
}
