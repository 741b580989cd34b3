package papers

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Paper is one numbered component of a subject's examination
type Paper struct {
	Number      string
	Description string
}

// Label returns the display label used for the paper in results
func (p Paper) Label() string {
	return fmt.Sprintf("Paper %s: %s", p.Number, p.Description)
}

// List is an ordered paper-number to description mapping. It is stored as a
// JSON object and keeps the key order of the document it was decoded from.
type List []Paper

// Set adds or replaces a paper. A replaced paper keeps its position.
func (l List) Set(number, description string) List {
	for i := range l {
		if l[i].Number == number {
			l[i].Description = description
			return l
		}
	}
	return append(l, Paper{Number: number, Description: description})
}

// Get returns the description for a paper number
func (l List) Get(number string) (string, bool) {
	for _, p := range l {
		if p.Number == number {
			return p.Description, true
		}
	}
	return "", false
}

// Map returns the papers as a plain map
func (l List) Map() map[string]string {
	m := make(map[string]string, len(l))
	for _, p := range l {
		m[p.Number] = p.Description
	}
	return m
}

func (l List) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Number)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(p.Description)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (l *List) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*l = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("papers must be a JSON object, got %v", tok)
	}

	var out List
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected paper key %v", keyTok)
		}
		var desc string
		if err := dec.Decode(&desc); err != nil {
			return fmt.Errorf("paper %s: %w", key, err)
		}
		out = out.Set(key, desc)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	*l = out
	return nil
}
