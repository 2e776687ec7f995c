package common

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// crashLogDir is where crash reports are written, set at startup
var crashLogDir = "./logs"

// InstallCrashHandler sets the crash report directory and ensures it exists.
// Call at the start of main() before any deferred recovery.
func InstallCrashHandler(logDir string) {
	if logDir != "" {
		crashLogDir = logDir
	}

	if err := os.MkdirAll(crashLogDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create crash log directory: %v\n", err)
	}
}

// WriteCrashFile writes a crash report with the panic value and a full
// goroutine dump. Call from panic recovery before the process exits.
// Returns the path to the crash file.
func WriteCrashFile(panicVal interface{}) string {
	timestamp := time.Now().Format("2006-01-02T15-04-05")
	crashPath := filepath.Join(crashLogDir, fmt.Sprintf("crash-%s.log", timestamp))

	var report bytes.Buffer
	fmt.Fprintf(&report, "colligo %s crashed at %s\n\n", GetFullVersion(), time.Now().Format(time.RFC3339))
	fmt.Fprintf(&report, "panic: %v\n\n", panicVal)

	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)
	report.Write(buf[:n])

	if err := os.WriteFile(crashPath, report.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write crash file: %v\n", err)
		return ""
	}
	return crashPath
}
