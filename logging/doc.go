// Package logging builds the structured slog logger used by the query
// builder and the command line tool.
package logging
