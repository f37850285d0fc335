package migrate

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/zeebo/blake3"

	"github.com/tordrt/datadict/internal/db"
	"github.com/tordrt/datadict/internal/dict"
	"github.com/tordrt/datadict/internal/logger"
)

// ErrPreconditionFailed is returned when a strict precondition is false
var ErrPreconditionFailed = errors.New("precondition failed")

// StepState is the lifecycle position of one step within a run
type StepState int

const (
	Pending StepState = iota
	Running
	Applied
	Failed
)

func (s StepState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Applied:
		return "applied"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("StepState(%d)", int(s))
}

// StepError halts a run
type StepError struct {
	Index     int
	Operation string
	// Statement is the SQL that failed, empty when the step failed before
	// reaching the database
	Statement string
	Err       error
}

func (e *StepError) Error() string {
	if e.Statement != "" {
		return fmt.Sprintf("step %d (%s) failed on %q: %v", e.Index, e.Operation, e.Statement, e.Err)
	}
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index, e.Operation, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Event reports a step state change to an observer
type Event struct {
	Index       int
	Total       int
	Operation   string
	Description string
	State       StepState
	Skipped     bool
	Err         error
}

// StepResult is the outcome of one step in a Report
type StepResult struct {
	Index       int
	Operation   string
	Description string
	State       StepState
	Skipped     bool
	Statements  []string
	Duration    time.Duration
}

// Report summarizes a run
type Report struct {
	RunID string
	// From is the marker before the run, Last the marker after it
	From  int
	Last  int
	Steps []StepResult
}

// Applied counts steps that ran or were skipped in this run
func (r *Report) Applied() int {
	n := 0
	for _, s := range r.Steps {
		if s.State == Applied {
			n++
		}
	}
	return n
}

// Runner applies an ordered step list against one connection. It is not
// safe for concurrent use, and two runners must not target one database.
type Runner struct {
	conn     *db.Conn
	gen      *dict.Generator
	store    *stateStore
	funcs    Functions
	tables   TableNames
	log      *logger.Logger
	observer func(Event)
}

// Option configures a Runner
type Option func(*Runner)

// WithLogger sets the runner logger
func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) {
		r.log = l
	}
}

// WithTables sets how {name} table placeholders resolve
func WithTables(t TableNames) Option {
	return func(r *Runner) {
		r.tables = t
	}
}

// WithFunctions registers UpdateFunction implementations
func WithFunctions(f Functions) Option {
	return func(r *Runner) {
		if r.funcs == nil {
			r.funcs = Functions{}
		}
		for name, fn := range f {
			r.funcs[name] = fn
		}
	}
}

// WithStateTable overrides the table holding the progress marker
func WithStateTable(name string) Option {
	return func(r *Runner) {
		r.store.table = name
	}
}

// WithObserver receives every step state change
func WithObserver(fn func(Event)) Option {
	return func(r *Runner) {
		r.observer = fn
	}
}

// NewRunner creates a runner generating SQL for the dialect of conn
func NewRunner(conn *db.Conn, opts ...Option) *Runner {
	gen := dict.NewGenerator(conn.Dialect())
	r := &Runner{
		conn:  conn,
		gen:   gen,
		store: &stateStore{conn: conn, gen: gen, table: DefaultStateTable},
		funcs: Functions{},
		log:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.store.table = r.tables.Resolve(r.store.table)
	return r
}

// Current returns the persisted state, with Step -1 before the first run
func (r *Runner) Current(ctx context.Context) (State, error) {
	return r.store.load(ctx)
}

// Run applies every step after the persisted marker in order. The marker
// advances after each step, so a failed run resumes at the failing step.
func (r *Runner) Run(ctx context.Context, steps []Step) (*Report, error) {
	st, err := r.store.load(ctx)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}
	report := &Report{RunID: id.String(), From: st.Step, Last: st.Step}

	if st.Step >= len(steps) {
		r.log.WithFields(logrus.Fields{
			"marker": st.Step,
			"steps":  len(steps),
		}).Warn("Database is ahead of the migration list")
		return report, nil
	}

	for i := st.Step + 1; i < len(steps); i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res, err := r.apply(ctx, i, len(steps), steps[i])
		if err != nil {
			res.State = Failed
			report.Steps = append(report.Steps, res)
			r.log.WithFields(logrus.Fields{"step": i, "op": res.Operation}).WithError(err).Error("Migration step failed")
			r.notify(Event{Index: i, Total: len(steps), Operation: res.Operation, Description: res.Description, State: Failed, Err: err})
			return report, err
		}

		next := State{
			Step:      i,
			RunID:     report.RunID,
			Checksum:  Fingerprint(steps[:i+1]),
			UpdatedAt: time.Now(),
		}
		if err := r.store.save(ctx, next); err != nil {
			se := &StepError{Index: i, Operation: res.Operation, Err: err}
			res.State = Failed
			report.Steps = append(report.Steps, res)
			r.notify(Event{Index: i, Total: len(steps), Operation: res.Operation, Description: res.Description, State: Failed, Err: se})
			return report, se
		}

		res.State = Applied
		report.Steps = append(report.Steps, res)
		report.Last = i
		r.log.WithFields(logrus.Fields{
			"step":     i,
			"op":       res.Operation,
			"state":    Applied,
			"skipped":  res.Skipped,
			"duration": res.Duration,
		}).Info(res.Description)
		r.notify(Event{Index: i, Total: len(steps), Operation: res.Operation, Description: res.Description, State: Applied, Skipped: res.Skipped})
	}
	return report, nil
}

func (r *Runner) apply(ctx context.Context, i, total int, step Step) (StepResult, error) {
	start := time.Now()
	op := resolve(step.Op, r.tables)
	res := StepResult{Index: i, Operation: op.Name(), Description: label(op), State: Running}
	r.notify(Event{Index: i, Total: total, Operation: res.Operation, Description: res.Description, State: Running})

	ok, err := r.precondition(ctx, i, step, op)
	if err != nil {
		return res, err
	}
	if !ok {
		res.Skipped = true
		res.Duration = time.Since(start)
		return res, nil
	}

	if uf, isFunc := op.(UpdateFunction); isFunc {
		fn, err := r.funcs.lookup(uf.Function)
		if err == nil {
			err = fn(ctx, r.env(), uf.Args)
		}
		r.conn.ResetCaches()
		if err != nil {
			return res, &StepError{Index: i, Operation: res.Operation, Err: err}
		}
		res.Duration = time.Since(start)
		return res, nil
	}

	stmts, err := r.statements(ctx, op)
	if err != nil {
		return res, &StepError{Index: i, Operation: res.Operation, Err: err}
	}
	res.Statements = stmts

	for _, stmt := range stmts {
		if _, err := r.conn.Execute(ctx, stmt); err != nil {
			r.conn.ResetCaches()
			return res, &StepError{Index: i, Operation: res.Operation, Statement: stmt, Err: err}
		}
	}
	r.conn.ResetCaches()
	res.Duration = time.Since(start)
	return res, nil
}

// precondition reports whether the step should run. A false strict
// precondition is an error.
func (r *Runner) precondition(ctx context.Context, i int, step Step, op Operation) (bool, error) {
	if step.When == nil {
		return true, nil
	}
	ok, err := step.When.Check(ctx, r.env())
	if err != nil {
		return false, &StepError{Index: i, Operation: op.Name(), Err: fmt.Errorf("failed to evaluate %q: %w", step.When.Description, err)}
	}
	if !ok && step.When.Strict {
		return false, &StepError{Index: i, Operation: op.Name(), Err: fmt.Errorf("%w: %s", ErrPreconditionFailed, step.When.Description)}
	}
	if !ok {
		r.log.WithFields(logrus.Fields{"step": i, "op": op.Name()}).Debugf("Skipping, %s is false", step.When.Description)
	}
	return ok, nil
}

func (r *Runner) env() Env {
	return Env{Conn: r.conn, Tables: r.tables}
}

func (r *Runner) notify(e Event) {
	if r.observer != nil {
		r.observer(e)
	}
}

// Status describes how far a database is through a step list
type Status struct {
	State
	Total   int
	Pending int
	// Drift is set when the applied prefix of the list no longer hashes to
	// the checksum stored by the last run
	Drift bool
}

// Status reads the marker and compares it with steps
func (r *Runner) Status(ctx context.Context, steps []Step) (*Status, error) {
	st, err := r.store.load(ctx)
	if err != nil {
		return nil, err
	}
	s := &Status{State: st, Total: len(steps)}
	if pending := len(steps) - (st.Step + 1); pending > 0 {
		s.Pending = pending
	}
	switch {
	case st.Step < 0:
	case st.Step >= len(steps):
		s.Drift = true
	default:
		s.Drift = st.Checksum != Fingerprint(steps[:st.Step+1])
	}
	return s, nil
}

// Fingerprint hashes the description of a step list
func Fingerprint(steps []Step) string {
	h := blake3.New()
	for i, s := range steps {
		fmt.Fprintf(h, "%d %s %+v", i, s.Op.Name(), s.Op)
		if s.When != nil {
			fmt.Fprintf(h, " when %s strict=%t", s.When.Description, s.When.Strict)
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
