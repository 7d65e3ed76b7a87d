// Package logger provides structured logging for WorldSave.
//
// This package bootstraps log/slog for the CLI and for hosts that want the
// same defaults:
//
//   - logger.go: handler construction, level parsing, process default
//   - redact.go: sensitive attribute redaction
//
// Features:
//
//   - JSON and text output formats
//   - Runtime log level adjustment
//   - Automatic masking of key and passphrase material
package logger
