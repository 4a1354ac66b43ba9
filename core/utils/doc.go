// Package utils provides scalar conversion helpers shared across the
// codebase. Sheet cells and API payloads arrive as loosely typed values
// (strings, JSON numbers, booleans); these helpers normalize them for
// comparison and display.
package utils
