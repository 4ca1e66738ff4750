package resource

import (
	"log"
	"os"
)

// logger receives failed lock acquisitions, matching the teacher's plain log.Printf usage rather than a structured
// logging library.
var logger = log.New(os.Stderr, "resource: ", log.LstdFlags)

// SetLogger overrides the package-level logger.
func SetLogger(l *log.Logger) { logger = l }
