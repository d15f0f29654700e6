//go:build !windows

// Service wrapper stubs for non-Windows platforms; the application
// always runs in the foreground here.
package main

// RunAsService reports false so the application starts normally.
func RunAsService() (bool, error) {
	return false, nil
}

// HandleServiceCommand reports false; service subcommands only exist
// on Windows.
func HandleServiceCommand(args []string) bool {
	return false
}
