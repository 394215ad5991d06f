// Package logx configures bossnotifier's structured logging.
//
// A small wrapper (logx.Logger) on top of zerolog keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Level and sinks swappable at runtime (config hot reload)
//
// Console output goes to stderr; stdout belongs to the overlay.
package logx
