// Package output provides structured output and error handling for the tuture CLI.
//
// Every command can write either human-readable text or JSON. The Printer
// switches between the two based on the --json flag and styles human output
// with lipgloss only when writing to a terminal:
//
//	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), output.IsTTY(cmd.OutOrStdout()))
//	printer.Success(map[string]any{"message": "Stored 12 commits"})
//	printer.Error(err)
//
// # Exit Codes
//
//	output.ExitSuccess     // 0
//	output.ExitUserError   // 1: bad arguments, invalid config
//	output.ExitSystemError // 2: git failure, artifact I/O
//	output.ExitConflict    // 3: foreign hook in the way
//
// Commands return *ExitError values (NewUserError, NewSystemError,
// NewConflictError, FromError); main turns them into the process exit code
// with GetExitCode.
package output
