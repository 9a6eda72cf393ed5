package config

import "time"

const (
	DefaultHTTPPort          = "8080"
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultPGMaxConns        = 10
	DefaultPGMinConns        = 1
	DefaultPGReadyWait       = 30 * time.Second
	DefaultKafkaWriteTimeout = 5 * time.Second
)
