// Package board defines the set of signals a game is played with.
//
// Boards are written in CUE and checked against an embedded schema, so a
// malformed board fails with a source position before any game starts.
// The engine itself only sees the signal count; names, keys and labels are
// for the drivers that translate player input into signal indexes.
package board

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const schemaFilename = "schema.cue"

//go:embed schema.cue
var schemaSource []byte

// Signal is one button on a board.
type Signal struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Key   string `json:"key,omitempty"`
	Label string `json:"label"`
}

// Board is a validated, ordered set of signals.
type Board struct {
	Name    string   `json:"name"`
	Signals []Signal `json:"signals"`
}

// Len returns the number of signals.
func (b *Board) Len() int {
	return len(b.Signals)
}

// Label returns the display label for index i, or its number when i is out
// of range.
func (b *Board) Label(i int) string {
	if i < 0 || i >= len(b.Signals) {
		return strconv.Itoa(i)
	}
	return b.Signals[i].Label
}

// Lookup resolves a player token to a signal index.
//
// A token matches, in order of precedence, a key, a signal name, a decimal
// index, or a label. Comparison is NFC-normalised and case-folded, so "RED",
// "red" and "Red" are the same token. Keys win over indexes, so a board
// with digit keys is played by its keys.
func (b *Board) Lookup(tok string) (int, bool) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return 0, false
	}

	want := fold(tok)
	for _, s := range b.Signals {
		if s.Key != "" && fold(s.Key) == want {
			return s.Index, true
		}
	}
	for _, s := range b.Signals {
		if fold(s.Name) == want {
			return s.Index, true
		}
	}
	if i, err := strconv.Atoi(tok); err == nil && i >= 0 && i < len(b.Signals) {
		return i, true
	}
	for _, s := range b.Signals {
		if fold(s.Label) == want {
			return s.Index, true
		}
	}
	return 0, false
}

// ReservedTokens are the words the play prompt reads as commands. No
// signal name, key or label may fold to one of them.
var ReservedTokens = []string{"start", "s", "quit", "q", "exit", "help", "?"}

// IsReserved reports whether tok folds to a reserved command word.
func IsReserved(tok string) bool {
	return slices.Contains(ReservedTokens, fold(strings.TrimSpace(tok)))
}

// Default is the classic four-colour board.
func Default() *Board {
	b, err := Parse("default.cue", []byte(`
name: "classic"
signals: [
	{name: "red", key: "r"},
	{name: "blue", key: "b"},
	{name: "yellow", key: "y"},
	{name: "green", key: "g"},
]
`))
	if err != nil {
		panic(fmt.Sprintf("board: default board is invalid: %v", err))
	}
	return b
}

// Load reads and parses a board file.
func Load(path string) (*Board, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Message: err.Error()}
	}
	return Parse(path, src)
}

type rawBoard struct {
	Name    string      `json:"name"`
	Signals []rawSignal `json:"signals"`
}

type rawSignal struct {
	Name  string `json:"name"`
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Parse compiles src, unifies it with the board schema, and returns the
// validated board. filename is used in error positions only.
func Parse(filename string, src []byte) (*Board, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename(schemaFilename))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(ErrCodeSchema, err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(ErrCodeSyntax, err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Board")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(ErrCodeInvalid, err)
	}

	var raw rawBoard
	if err := unified.Decode(&raw); err != nil {
		return nil, formatCUEError(ErrCodeInvalid, err)
	}

	return build(raw, v)
}

func build(raw rawBoard, v cue.Value) (*Board, error) {
	title := cases.Title(language.English)

	b := &Board{Name: raw.Name, Signals: make([]Signal, 0, len(raw.Signals))}
	names := make(map[string]int)
	keys := make(map[string]int)

	for i, rs := range raw.Signals {
		pos := v.LookupPath(cue.MakePath(cue.Str("signals"), cue.Index(i))).Pos()

		name := norm.NFC.String(rs.Name)
		if err := checkReserved(i, "name", name, pos); err != nil {
			return nil, err
		}
		if j, dup := names[name]; dup {
			return nil, &LoadError{
				Code:    ErrCodeDuplicate,
				Message: fmt.Sprintf("signal %d reuses name %q from signal %d", i, name, j),
				Pos:     pos,
			}
		}
		names[name] = i

		key := norm.NFC.String(rs.Key)
		if key != "" {
			if err := checkReserved(i, "key", key, pos); err != nil {
				return nil, err
			}
			if j, dup := keys[fold(key)]; dup {
				return nil, &LoadError{
					Code:    ErrCodeDuplicate,
					Message: fmt.Sprintf("signal %d reuses key %q from signal %d", i, key, j),
					Pos:     pos,
				}
			}
			keys[fold(key)] = i
		}

		label := norm.NFC.String(rs.Label)
		if label == "" {
			label = title.String(strings.ReplaceAll(name, "_", " "))
		}
		if err := checkReserved(i, "label", label, pos); err != nil {
			return nil, err
		}

		b.Signals = append(b.Signals, Signal{Index: i, Name: name, Key: key, Label: label})
	}

	return b, nil
}

func checkReserved(i int, field, tok string, pos token.Pos) error {
	if !IsReserved(tok) {
		return nil
	}
	return &LoadError{
		Code:    ErrCodeReserved,
		Message: fmt.Sprintf("signal %d %s %q is a reserved command word", i, field, tok),
		Pos:     pos,
	}
}

func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// LoadError codes.
const (
	ErrCodeRead      = "BOARD_READ"
	ErrCodeSyntax    = "BOARD_SYNTAX"
	ErrCodeSchema    = "BOARD_SCHEMA"
	ErrCodeInvalid   = "BOARD_INVALID"
	ErrCodeDuplicate = "BOARD_DUPLICATE"
	ErrCodeReserved  = "BOARD_RESERVED"
)

// LoadError is a board loading failure with its source position.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(code string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}

	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	for _, pos := range errors.Positions(first) {
		// Point at the board file rather than the schema when both are known
		if !le.Pos.IsValid() || le.Pos.Filename() == schemaFilename {
			le.Pos = pos
		}
	}
	return le
}
