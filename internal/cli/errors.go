package cli

import "errors"

var (
	// ErrSyntax is returned by command handlers and address parsing for a
	// malformed command line. Handlers return it to the dispatcher, whose
	// Run loop prints it as one line on the command output stream and
	// keeps reading commands.
	ErrSyntax = errors.New("syntax error")
	// ErrUnknownCommand means no entry in the command table has a long
	// enough prefix match.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrAmbiguousCommand means more than one command has the typed word
	// as a prefix at or above that command's minimum length.
	ErrAmbiguousCommand = errors.New("ambiguous command")
)
