// Package logger provides leveled terminal logging for sealreel commands.
//
// # Verbosity Levels
//
// Logging behavior is controlled by two flags:
//
//   - --verbose: Shows info messages
//   - --debug: Shows all messages including debug details
//
// Warnings and errors always go to stderr.
//
// # Usage
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Uploading %d bytes", n)
//
// Library packages do not log. Workflows and commands receive a Logger
// and report on behalf of the operation they orchestrate.
package logger
