// Package logx configures the bot's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured and size-rotated (lumberjack)
//   - A CRITICAL level that never exits the process
package logx
