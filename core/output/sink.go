package output

import (
	"context"
	"io"
)

// Sink is a destination for one report.
// Open is called once per run; the caller must Close the returned writer.
type Sink interface {
	// Open returns a writer positioned at the start of an empty report
	Open(ctx context.Context) (io.WriteCloser, error)

	// Location describes where the report ends up (path, "stdout", gs:// URL)
	Location() string
}
