package promptscore

import (
	"io"

	"github.com/baditaflorin/l"
)

// createDefaultLogger creates the logger behind the package-level functions.
// It writes synchronously to io.Discard so library callers see no output.
func createDefaultLogger() (l.Logger, error) {
	return l.NewStandardFactory().CreateLogger(l.Config{
		Output:     io.Discard,
		JsonFormat: false,
		AsyncWrite: false,
		AddSource:  false,
	})
}
