package cache

import (
	"log"
	"os"
)

// logger receives eviction, write-back, and expulsion events at a coarse
// level, matching the teacher's plain log.Printf usage
// (internal/storage/scheduler.go, internal/storage/concurrency.go) rather
// than a structured logging library.
var logger = log.New(os.Stderr, "cache: ", log.LstdFlags)

// SetLogger overrides the package-level logger, e.g. to silence it in
// tests or redirect it into an application's own log output.
func SetLogger(l *log.Logger) { logger = l }
