package syncproto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"gihan9a/draftsync/pkg/chunk"
)

// Entries is the syncText payload. On the wire each entry is either null
// (unchanged), an object with an integer "pos" (copied), or an object with a
// null or missing "pos" and a non-empty "data" string (literal). Anything
// else decodes to chunk.KindInvalid rather than failing the whole message.
type Entries []chunk.Entry

// wireEntry keeps both fields raw so a badly typed "data" cannot hide a valid "pos"
type wireEntry struct {
	Pos  json.RawMessage `json:"pos"`
	Data json.RawMessage `json:"data"`
}

// UnmarshalJSON decodes an entry array. Only a payload that is not an array is an error.
func (e *Entries) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("syncText payload is not an array: %w", err)
	}

	out := make(Entries, len(raw))
	for i, r := range raw {
		out[i] = decodeEntry(r)
	}
	*e = out
	return nil
}

// MarshalJSON encodes entries the way the browser client sends them
func (e Entries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, entry := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		switch entry.Kind {
		case chunk.KindUnchanged:
			buf.WriteString("null")
		case chunk.KindCopied:
			fmt.Fprintf(&buf, `{"pos":%d}`, entry.Pos)
		case chunk.KindLiteral:
			data, err := json.Marshal(entry.Data)
			if err != nil {
				return nil, err
			}
			buf.WriteString(`{"pos":null,"data":`)
			buf.Write(data)
			buf.WriteByte('}')
		default:
			buf.WriteString("{}")
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func decodeEntry(raw json.RawMessage) chunk.Entry {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return chunk.Unchanged()
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return chunk.Invalid()
	}

	var w wireEntry
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return chunk.Invalid()
	}

	if len(w.Pos) > 0 && !bytes.Equal(w.Pos, []byte("null")) {
		pos, ok := decodePos(w.Pos)
		if !ok {
			return chunk.Invalid()
		}
		return chunk.Copied(pos)
	}

	var data string
	if len(w.Data) == 0 || json.Unmarshal(w.Data, &data) != nil || data == "" {
		return chunk.Invalid()
	}
	return chunk.Literal(data)
}

// decodePos accepts JSON numbers with an integral value that fits in 32 bits
func decodePos(raw json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
