package backend

import "encoding/json"

// nullString is a nullable wire field, following the same
// present-but-null-vs-absent distinction the teacher's store layer gets
// from sqlc-dev/pqtype for nullable Postgres columns. pqtype's own types
// implement database/sql's Scanner/Valuer, not json.Marshaler, so they
// don't fit a JSON wire struct; this is the idiom carried over, not the
// library itself (see DESIGN.md).
type nullString struct {
	String string
	Valid  bool
}

func (n nullString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.String)
}

func (n *nullString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		n.Valid = false
		n.String = ""
		return nil
	}
	if err := json.Unmarshal(data, &n.String); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func nullStringOf(s string) nullString {
	if s == "" {
		return nullString{}
	}
	return nullString{String: s, Valid: true}
}
