package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/lessfeed/internal/logger"
)

var (
	// ErrNoData is returned when no cards could be fetched and no cache exists
	// for the requested language. Callers render it as an empty state.
	ErrNoData = stderrors.New("no cards available")
	// ErrAlreadyLoading is returned when a load is requested while another one
	// for the same trigger is still in flight.
	ErrAlreadyLoading = stderrors.New("a load is already in progress")
	// ErrNotInitialized is returned by stores used before Init or Load.
	ErrNotInitialized = stderrors.New("storage not initialized, run 'lessfeed init' first")
)

// Format renders err for the terminal with a consistent "Error: " prefix.
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
