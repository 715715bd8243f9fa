// Package logger wraps zap with a global sugared logger and context helpers.
//
// Every service receives a context and logs through it, so fields attached
// with WithName or WithKV (the package being processed, the upstream source)
// follow the call chain without being threaded through signatures.
// Output goes to stderr, leaving stdout to machine readable command output.
package logger
