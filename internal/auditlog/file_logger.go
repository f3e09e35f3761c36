package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/phrazzld/ctgen/internal/llm"
	"github.com/phrazzld/ctgen/internal/logutil"
)

// FileAuditLogger writes one JSON-encoded AuditEntry per line to a log file.
//
// This is a deep module: the interface is a handful of methods, but the
// implementation owns file lifecycle, JSON encoding, and error
// categorization so callers never touch an *os.File directly.
type FileAuditLogger struct {
	mu     sync.Mutex
	file   *os.File
	logger logutil.LoggerInterface
}

// NewFileAuditLogger opens (creating if necessary) the file at path for
// append-only writes and returns a logger bound to it. Failures to open the
// file are logged to the internal logger before being returned.
func NewFileAuditLogger(path string, logger logutil.LoggerInterface) (*FileAuditLogger, error) {
	//nolint:gosec // G304: path is operator-supplied configuration, not untrusted input
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Error("failed to open audit log file %s: %v", path, err)
		return nil, fmt.Errorf("failed to open audit log file %s: %w", path, err)
	}

	logger.Info("audit log opened at %s", path)
	return &FileAuditLogger{file: f, logger: logger}, nil
}

// Log writes a fully-populated AuditEntry as a single JSON line. The
// timestamp is stamped if the caller left it zero.
func (l *FileAuditLogger) Log(_ context.Context, entry AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		l.logger.Error("failed to marshal audit entry: %v", err)
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	data = append(data, '\n')
	if _, err := l.file.Write(data); err != nil {
		l.logger.Error("failed to write audit entry: %v", err)
		return fmt.Errorf("failed to write audit entry: %w", err)
	}

	return nil
}

// LogLegacy is Log without a context parameter, kept for call sites that
// predate correlation-ID propagation.
func (l *FileAuditLogger) LogLegacy(entry AuditEntry) error {
	return l.Log(context.Background(), entry)
}

// LogOp builds an AuditEntry from an operation/status pair plus an optional
// error, deriving a human-readable Message the way the orchestrator's audit
// calls expect:
//   - Success  -> "<op> completed successfully"
//   - InProgress -> "<op> started"
//   - Failure -> "<op> failed", with Error populated from err
//   - anything else -> "<op> - <status>"
func (l *FileAuditLogger) LogOp(ctx context.Context, operation, status string, inputs, outputs map[string]interface{}, err error) error {
	entry := AuditEntry{
		Operation: operation,
		Status:    status,
		Inputs:    inputs,
		Outputs:   outputs,
		Message:   opMessage(operation, status),
	}

	if err != nil {
		entry.Error = errorInfoFor(err)
	}

	return l.Log(ctx, entry)
}

// LogOpLegacy is LogOp without a context parameter.
func (l *FileAuditLogger) LogOpLegacy(operation, status string, inputs, outputs map[string]interface{}, err error) error {
	return l.LogOp(context.Background(), operation, status, inputs, outputs, err)
}

// Close flushes and closes the underlying file. Safe to call once; a second
// call returns the error os.File.Close would give for an already-closed file.
func (l *FileAuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

func opMessage(operation, status string) string {
	switch status {
	case "Success":
		return operation + " completed successfully"
	case "InProgress":
		return operation + " started"
	case "Failure":
		return operation + " failed"
	default:
		return operation + " - " + status
	}
}

func errorInfoFor(err error) *ErrorInfo {
	if catErr, ok := llm.IsCategorizedError(err); ok {
		return &ErrorInfo{
			Message: catErr.Error(),
			Type:    fmt.Sprintf("Error:%s", catErr.Category().String()),
		}
	}
	return &ErrorInfo{
		Message: err.Error(),
		Type:    "GeneralError",
	}
}
