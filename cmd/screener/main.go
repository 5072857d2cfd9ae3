// Command screener ranks resumes against job descriptions.
//
// Usage:
//
//	screener screen --job job.txt --skills Go,Kafka --department Platform resumes/*.txt
//	screener consume [--config configs/screener.yaml]
//	screener analytics [--config configs/screener.yaml]
package main

import (
	"fmt"
	"os"

	apperrors "github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/errors"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(apperrors.ExitCode(err))
	}
}
