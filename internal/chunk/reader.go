package chunk

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	cserrors "github.com/codescope/codescope/internal/errors"
)

// maxLineBytes bounds a single NDJSON record (large generated files can
// produce multi-hundred-KB function bodies).
const maxLineBytes = 4 * 1024 * 1024

// ReadNDJSON reads newline-delimited JSON chunk records from r.
// Each record is validated; the first invalid record aborts the read with
// its line number so the producer can be fixed.
func ReadNDJSON(r io.Reader) ([]*Chunk, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var chunks []*Chunk
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var c Chunk
		if err := json.Unmarshal([]byte(text), &c); err != nil {
			return nil, cserrors.New(cserrors.ErrCodeInvalidChunk,
				fmt.Sprintf("line %d: malformed chunk record: %v", line, err), err)
		}
		if err := c.Validate(); err != nil {
			return nil, cserrors.New(cserrors.ErrCodeInvalidChunk,
				fmt.Sprintf("line %d: %v", line, err), err)
		}
		chunks = append(chunks, &c)
	}
	if err := scanner.Err(); err != nil {
		return nil, cserrors.New(cserrors.ErrCodeInvalidChunk,
			fmt.Sprintf("read chunk records: %v", err), err)
	}

	return chunks, nil
}
