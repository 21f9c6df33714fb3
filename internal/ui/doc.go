// Package ui provides semantic text formatting for CLI output.
//
// Formatters colorize content when the terminal supports it. When NO_COLOR
// is set or colors are unavailable, text decorations are used instead:
//
//	ui.Code.Sprint("sealreel keys export")   // `sealreel keys export`
//	ui.Highlight.Sprint("Holiday")           // 'Holiday'
//	ui.Muted.Sprint("owner")                 // (owner)
//	ui.Fingerprint.Sprint("3f9a…")           // [3f9a…]
//
// State colors request and identity states by outcome.
package ui
