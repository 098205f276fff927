package realtime

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteSSE writes ev as one server-sent-events data frame.
func WriteSSE(w io.Writer, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// WriteComment writes an SSE comment line, used for the connect and
// keep-alive frames.
func WriteComment(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, ": %s\n\n", text)
	return err
}
