// Package ui provides semantic text formatting for terminal output.
//
// Formatters carry meaning (Success, Error, Highlight, Path) rather than
// raw colors, and degrade to plain-text decorations when color output is
// disabled via NO_COLOR or terminal detection.
package ui
