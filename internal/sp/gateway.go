// Package sp is the stored-procedure gateway. Every business operation in
// this system executes inside a database stored procedure that returns one
// row carrying a JSON payload; this package issues the CALL, decodes that
// payload, and classifies the outcome.
//
// A decoded payload is one of three things:
//   - an empty result (the procedure returned no row),
//   - a sentinel (the payload carries an "error" field with a business-rule
//     code such as "already_scanned"),
//   - a regular payload.
//
// Routes switch over Result.Kind instead of sniffing raw JSON. Argument order
// and count are an implicit contract with the database; the gateway performs
// no validation of argument semantics.
package sp

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNotInitialized is returned when the gateway is used before a pool was
// injected. The pool is constructed at startup and passed in explicitly;
// there is no package-level handle.
var ErrNotInitialized = errors.New("sp: gateway not initialized")

// Kind classifies a procedure result.
type Kind int

const (
	// KindOK means the procedure produced a regular JSON payload.
	KindOK Kind = iota
	// KindSentinel means the payload reported a business-rule rejection.
	KindSentinel
	// KindEmpty means the procedure returned no row at all. Distinct from a
	// sentinel: routes map it to their own not-found/bad-request convention.
	KindEmpty
)

// Result is the decoded outcome of one procedure call.
type Result struct {
	Kind Kind
	// Code is the sentinel code when Kind == KindSentinel ("not_found",
	// "already_scanned", ...). Vocabulary is per procedure, not global.
	Code string
	// Raw is the decoded JSON payload. Present for KindOK and KindSentinel.
	Raw json.RawMessage
}

// Decode unmarshals the payload into v. Shape mismatches are hard failures,
// never silent fallbacks.
func (r Result) Decode(v any) error {
	if len(r.Raw) == 0 {
		return errors.New("sp: empty result has no payload")
	}
	return json.Unmarshal(r.Raw, v)
}

// Caller is the procedure-call contract consumed by route handlers.
type Caller interface {
	Call(ctx context.Context, proc string, args ...any) (Result, error)
}

// Gateway executes stored procedures against an injected pool.
type Gateway struct {
	db  *sql.DB
	log zerolog.Logger
}

// New returns a Gateway bound to db.
func New(db *sql.DB, log zerolog.Logger) *Gateway {
	return &Gateway{db: db, log: log}
}

// Call invokes proc with the given ordinal arguments and decodes the first
// row of the first result set. Driver errors and malformed JSON payloads are
// returned as errors; callers map them to a 500-class response.
func (g *Gateway) Call(ctx context.Context, proc string, args ...any) (Result, error) {
	if g == nil || g.db == nil {
		return Result{}, ErrNotInitialized
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	query := "CALL " + proc + "(" + placeholders + ")"
	g.log.Debug().Str("proc", proc).Int("args", len(args)).Msg("sp call")

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Result{}, fmt.Errorf("sp: %s: %w", proc, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Result{}, fmt.Errorf("sp: %s: %w", proc, err)
		}
		g.log.Warn().Str("proc", proc).Msg("sp empty result")
		return Result{Kind: KindEmpty}, nil
	}

	row, err := scanRow(rows)
	if err != nil {
		return Result{}, fmt.Errorf("sp: %s: %w", proc, err)
	}

	raw, err := extractJSON(row, rows)
	if err != nil {
		return Result{}, fmt.Errorf("sp: %s: %w", proc, err)
	}

	var sentinel struct {
		Error string `json:"error"`
	}
	// Non-object payloads (arrays, scalars) cannot carry a sentinel; ignore
	// the unmarshal error and treat them as regular payloads.
	_ = json.Unmarshal(raw, &sentinel)
	if sentinel.Error != "" {
		return Result{Kind: KindSentinel, Code: sentinel.Error, Raw: raw}, nil
	}
	return Result{Kind: KindOK, Raw: raw}, nil
}

// scanRow reads the current row into a column-name map, normalizing []byte
// values (the MySQL driver's default) to strings.
func scanRow(rows *sql.Rows) (map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	vals := make([]any, len(cols))
	for i := range vals {
		vals[i] = new(any)
	}
	if err := rows.Scan(vals...); err != nil {
		return nil, err
	}
	row := make(map[string]any, len(cols))
	for i, c := range cols {
		v := *(vals[i].(*any))
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		row[c] = v
	}
	return row, nil
}

// extractJSON resolves the JSON payload from a scanned row:
//  1. a column literally named "json",
//  2. the first string column whose trimmed value starts with "{",
//  3. the whole row marshalled as an object.
//
// A candidate column holding invalid JSON is an error, not a fallthrough.
func extractJSON(row map[string]any, rows *sql.Rows) (json.RawMessage, error) {
	if v, ok := row["json"]; ok && v != nil {
		s, isStr := v.(string)
		if !isStr {
			return json.Marshal(v)
		}
		if !json.Valid([]byte(s)) {
			return nil, errors.New("json column holds invalid JSON")
		}
		return json.RawMessage(s), nil
	}

	// Preserve column order when sniffing for a JSON-bearing string column.
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		s, ok := row[c].(string)
		if !ok || !strings.HasPrefix(strings.TrimSpace(s), "{") {
			continue
		}
		if !json.Valid([]byte(s)) {
			return nil, fmt.Errorf("column %q holds invalid JSON", c)
		}
		return json.RawMessage(s), nil
	}

	return json.Marshal(row)
}
