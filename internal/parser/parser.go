// Package parser turns workbook sheets into record groups.
//
// There is one parser per physical sheet layout. Parsers are pure: they read
// the loaded workbook and return typed records with per-record warnings. A
// parser that cannot make sense of its sheet returns an error; ParseAll
// isolates that failure so the remaining sheets still produce records.
package parser

import (
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/schema"
	"github.com/JonMunkholm/workbook-migrate/internal/workbook"
)

// ErrNoReferenceWeek is returned by the cash position parser when neither the
// financial sheet nor the sheet itself provides a date.
var ErrNoReferenceWeek = errors.New("no reference week")

// ErrNoBlocks is returned when a multi-block sheet contains none of its blocks.
var ErrNoBlocks = errors.New("no recognizable blocks")

// Parser reads one sheet layout.
type Parser interface {
	// Name identifies the parser in logs and warnings.
	Name() string
	// Sheet is the layout the parser reads.
	Sheet() schema.SheetSpec
	// Parse extracts the sheet's record groups.
	Parse(wb *workbook.Workbook, pc *Context) (record.Groups, error)
}

// Context carries cross-sheet state for a single parse.
type Context struct {
	// ReferenceWeek is the latest financial week. Snapshot sheets are
	// dated with it.
	ReferenceWeek time.Time

	warnings []string
}

// Warn records a workbook-level warning that is not tied to a record,
// such as a skipped row or a missing optional column.
func (c *Context) Warn(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// Warnings returns the workbook-level warnings recorded so far.
func (c *Context) Warnings() []string {
	return c.warnings
}

// ParseError reports a parser that failed as a whole.
type ParseError struct {
	Parser string
	Sheet  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Sheet, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parsers lists every sheet parser in run order. CashPosition must follow
// Financial because it is dated with the latest financial week.
var Parsers = []Parser{
	Financial{},
	Sales{},
	Marketing{},
	KPIs{},
	Staff{},
	CashPosition{},
}

// Outcome is the result of a single parser.
type Outcome struct {
	Parser  string
	Sheet   string
	Records int
	Skipped bool  // sheet absent from the workbook
	Err     error // *ParseError when the parser failed
}

// Result aggregates every parser's output.
type Result struct {
	Groups        record.Groups
	Outcomes      []Outcome
	Warnings      []string // workbook-level warnings, including parser failures
	SkippedSheets []string
}

// Failed returns the outcomes of parsers that returned an error.
func (r *Result) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// ParseAll runs every parser against wb. A sheet that is absent is listed in
// SkippedSheets; any other parser failure degrades that parser's groups to
// empty and becomes a workbook-level warning. onSheet, when non-nil, is called
// before each parser runs.
func ParseAll(wb *workbook.Workbook, onSheet func(sheet string)) *Result {
	res := &Result{Groups: record.Groups{}}
	pc := &Context{}

	for _, p := range Parsers {
		sheet := p.Sheet().Name
		if onSheet != nil {
			onSheet(sheet)
		}

		groups, err := safeParse(p, wb, pc)
		out := Outcome{Parser: p.Name(), Sheet: sheet}

		switch {
		case errors.Is(err, workbook.ErrSheetNotFound):
			out.Skipped = true
			res.SkippedSheets = append(res.SkippedSheets, sheet)
		case err != nil:
			perr := &ParseError{Parser: p.Name(), Sheet: sheet, Err: err}
			out.Err = perr
			pc.Warn("%s", perr.Error())
		default:
			out.Records = groups.Total()
			res.Groups.Merge(groups)
		}
		res.Outcomes = append(res.Outcomes, out)

		if p.Name() == (Financial{}).Name() {
			if w, ok := res.Groups.LatestWeek(record.Financial); ok {
				pc.ReferenceWeek = w
			}
		}
	}

	res.Warnings = pc.Warnings()
	return res
}

// safeParse runs a parser, converting a panic into an error.
func safeParse(p Parser, wb *workbook.Workbook, pc *Context) (groups record.Groups, err error) {
	defer func() {
		if r := recover(); r != nil {
			groups = nil
			err = fmt.Errorf("parser panicked: %v", r)
		}
	}()
	return p.Parse(wb, pc)
}

// openSheet finds a sheet by its layout name or any alias.
func openSheet(wb *workbook.Workbook, spec schema.SheetSpec) (*workbook.Sheet, error) {
	for _, name := range append([]string{spec.Name}, spec.Aliases...) {
		s, err := wb.Sheet(name)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, workbook.ErrSheetNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", workbook.ErrSheetNotFound, spec.Name)
}
