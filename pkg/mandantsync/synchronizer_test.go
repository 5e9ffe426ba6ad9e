package mandantsync_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/heatcare/heatcare/pkg/cmp"
	"github.com/heatcare/heatcare/pkg/domain"
	assocmock "github.com/heatcare/heatcare/pkg/domain/association/db/mock"
	kerr "github.com/heatcare/heatcare/pkg/domain/errors"
	pgerrors "github.com/heatcare/heatcare/pkg/domain/errors/dberrors/postgres"
	mandantmock "github.com/heatcare/heatcare/pkg/domain/mandant/db/mock"
	objectmock "github.com/heatcare/heatcare/pkg/domain/object/db/mock"
	"github.com/heatcare/heatcare/pkg/mandantsync"
	"github.com/heatcare/heatcare/pkg/utils/try"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
)

func obj(id int, objanlage string) domain.Object {
	o := domain.Object{Id: id, Name: fmt.Sprintf("object-%d", id)}
	if objanlage != "" {
		o.Objanlage = []byte(objanlage)
	}
	return o
}

type logRecorder struct {
	mux   sync.Mutex
	lines map[string][]string
}

func newLogRecorder() *logRecorder {
	return &logRecorder{lines: map[string][]string{}}
}

func (l *logRecorder) record(level string, format string, args ...any) {
	l.mux.Lock()
	defer l.mux.Unlock()
	l.lines[level] = append(l.lines[level], fmt.Sprintf(format, args...))
}

func (l *logRecorder) Debugf(format string, args ...any) { l.record("debug", format, args...) }
func (l *logRecorder) Infof(format string, args ...any)  { l.record("info", format, args...) }
func (l *logRecorder) Warnf(format string, args ...any)  { l.record("warn", format, args...) }
func (l *logRecorder) Errorf(format string, args ...any) { l.record("error", format, args...) }

func (l *logRecorder) count(level string, substr string) int {
	l.mux.Lock()
	defer l.mux.Unlock()
	n := 0
	for _, line := range l.lines[level] {
		if strings.Contains(line, substr) {
			n += 1
		}
	}
	return n
}

type observerRecorder struct {
	outcomes []mandantsync.Outcome
	runs     []error
}

func (o *observerRecorder) ObserveObject(outcome mandantsync.Outcome) {
	o.outcomes = append(o.outcomes, outcome)
}

func (o *observerRecorder) ObserveRun(_ mandantsync.Summary, err error, _ time.Duration) {
	o.runs = append(o.runs, err)
}

func TestSynchronizer_Run(t *testing.T) {
	type When struct {
		objects  []domain.Object
		mandants []domain.Mandant
		before   assocmock.Table
		options  []mandantsync.Option
	}
	type Then struct {
		rows    []domain.Association
		summary mandantsync.Summary
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			ctx := context.Background()
			tbl := when.before
			if tbl == nil {
				tbl = assocmock.Table{}
			}

			testee := mandantsync.New(
				objectmock.Returning(t, when.objects...),
				mandantmock.Returning(t, when.mandants...),
				assocmock.InMemory(t, tbl),
				when.options...,
			)

			summary := try.To(testee.Run(ctx)).OrFatal(t)
			if summary != then.summary {
				t.Errorf("summary:\n===actual===\n%+v\n===expected===\n%+v", summary, then.summary)
			}
			if rows := tbl.Rows(); !cmp.SliceEq(rows, then.rows) {
				t.Errorf("rows:\n===actual===\n%+v\n===expected===\n%+v", rows, then.rows)
			}
		}
	}

	t.Run("an owner is associated", theory(
		When{
			objects:  []domain.Object{obj(1, `{"besitzer": "Acme"}`)},
			mandants: []domain.Mandant{{Id: 10, Name: "Acme"}},
		},
		Then{
			rows:    []domain.Association{{ObjectId: 1, MandantId: 10}},
			summary: mandantsync.Summary{Processed: 1, Created: 1, Added: 1},
		},
	))

	t.Run("a mandant in two roles is associated once", theory(
		When{
			objects:  []domain.Object{obj(2, `{"besitzer": "Acme", "betreiber": "acme"}`)},
			mandants: []domain.Mandant{{Id: 10, Name: "Acme"}},
		},
		Then{
			rows:    []domain.Association{{ObjectId: 2, MandantId: 10}},
			summary: mandantsync.Summary{Processed: 1, Created: 1, Added: 1},
		},
	))

	t.Run("names are matched case-insensitively", theory(
		When{
			objects: []domain.Object{
				obj(1, `{"handwerker": "ACME"}`),
				obj(2, `{"hausmeister": " acme "}`),
				obj(3, `{"betreiber": "MÜLLER"}`),
			},
			mandants: []domain.Mandant{{Id: 10, Name: "Acme"}, {Id: 20, Name: "Müller"}},
		},
		Then{
			rows: []domain.Association{
				{ObjectId: 1, MandantId: 10},
				{ObjectId: 2, MandantId: 10},
				{ObjectId: 3, MandantId: 20},
			},
			summary: mandantsync.Summary{Processed: 3, Created: 3, Added: 3},
		},
	))

	t.Run("unknown names are ignored", theory(
		When{
			objects:  []domain.Object{obj(1, `{"besitzer": "Acme", "betreiber": "Nobody", "hausmeister": 42}`)},
			mandants: []domain.Mandant{{Id: 10, Name: "Acme"}},
		},
		Then{
			rows:    []domain.Association{{ObjectId: 1, MandantId: 10}},
			summary: mandantsync.Summary{Processed: 1, Created: 1, Added: 1, Unresolved: 1},
		},
	))

	t.Run("all four roles are associated", theory(
		When{
			objects: []domain.Object{
				obj(1, `{"handwerker": "a", "besitzer": "b", "betreiber": "c", "hausmeister": "d", "etage": 3}`),
			},
			mandants: []domain.Mandant{
				{Id: 1, Name: "A"}, {Id: 2, Name: "B"}, {Id: 3, Name: "C"}, {Id: 4, Name: "D"}, {Id: 5, Name: "E"},
			},
		},
		Then{
			rows: []domain.Association{
				{ObjectId: 1, MandantId: 1},
				{ObjectId: 1, MandantId: 2},
				{ObjectId: 1, MandantId: 3},
				{ObjectId: 1, MandantId: 4},
			},
			summary: mandantsync.Summary{Processed: 1, Created: 4, Added: 4},
		},
	))

	t.Run("objects without configuration lose their associations", theory(
		When{
			objects: []domain.Object{
				obj(1, ``),
				obj(2, `null`),
				obj(3, `[1, 2]`),
				obj(4, `{"besitzer": "Acme"}`),
			},
			mandants: []domain.Mandant{{Id: 10, Name: "Acme"}, {Id: 20, Name: "Other"}},
			before: assocmock.Table{
				1: domain.NewMandantSet(10),
				3: domain.NewMandantSet(10, 20),
				4: domain.NewMandantSet(20),
			},
		},
		Then{
			rows:    []domain.Association{{ObjectId: 4, MandantId: 10}},
			summary: mandantsync.Summary{Processed: 4, Created: 1, Added: 1, Removed: 4, WithoutConfig: 3},
		},
	))

	t.Run("objects without configuration keep their associations when it is configured so", theory(
		When{
			objects: []domain.Object{
				obj(1, ``),
				obj(2, `"not an object"`),
			},
			mandants: []domain.Mandant{{Id: 10, Name: "Acme"}},
			before: assocmock.Table{
				1: domain.NewMandantSet(10),
				2: domain.NewMandantSet(10),
			},
			options: []mandantsync.Option{mandantsync.WithMissingConfigPolicy(mandantsync.Keep)},
		},
		Then{
			rows: []domain.Association{
				{ObjectId: 1, MandantId: 10},
				{ObjectId: 2, MandantId: 10},
			},
			summary: mandantsync.Summary{Processed: 2, WithoutConfig: 2},
		},
	))

	t.Run("double-encoded configuration is accepted", theory(
		When{
			objects:  []domain.Object{obj(1, `"{\"besitzer\": \"Acme\"}"`)},
			mandants: []domain.Mandant{{Id: 10, Name: "Acme"}},
		},
		Then{
			rows:    []domain.Association{{ObjectId: 1, MandantId: 10}},
			summary: mandantsync.Summary{Processed: 1, Created: 1, Added: 1},
		},
	))

	t.Run("stale associations are replaced", theory(
		When{
			objects:  []domain.Object{obj(1, `{"besitzer": "Acme", "betreiber": "Other"}`)},
			mandants: []domain.Mandant{{Id: 10, Name: "Acme"}, {Id: 20, Name: "Other"}, {Id: 30, Name: "Gone"}},
			before:   assocmock.Table{1: domain.NewMandantSet(10, 30)},
		},
		Then{
			rows: []domain.Association{
				{ObjectId: 1, MandantId: 10},
				{ObjectId: 1, MandantId: 20},
			},
			summary: mandantsync.Summary{Processed: 1, Created: 2, Added: 1, Removed: 1},
		},
	))

	mandantsWithCollision := []domain.Mandant{
		{Id: 12, Name: "Acme"},
		{Id: 10, Name: "ACME"},
		{Id: 20, Name: "Other"},
	}
	collidingObjects := []domain.Object{
		obj(1, `{"besitzer": "acme"}`),
		obj(2, `{"betreiber": "other"}`),
	}

	t.Run("shared names resolve to the first mandant by default", theory(
		When{objects: collidingObjects, mandants: mandantsWithCollision},
		Then{
			rows: []domain.Association{
				{ObjectId: 1, MandantId: 10},
				{ObjectId: 2, MandantId: 20},
			},
			summary: mandantsync.Summary{Processed: 2, Created: 2, Added: 2},
		},
	))

	t.Run("shared names resolve to the last mandant under last-wins", theory(
		When{
			objects:  collidingObjects,
			mandants: mandantsWithCollision,
			options:  []mandantsync.Option{mandantsync.WithConflictPolicy(mandantsync.LastWins)},
		},
		Then{
			rows: []domain.Association{
				{ObjectId: 1, MandantId: 12},
				{ObjectId: 2, MandantId: 20},
			},
			summary: mandantsync.Summary{Processed: 2, Created: 2, Added: 2},
		},
	))

	t.Run("shared names resolve to all mandants under merge", theory(
		When{
			objects:  collidingObjects,
			mandants: mandantsWithCollision,
			options:  []mandantsync.Option{mandantsync.WithConflictPolicy(mandantsync.Merge)},
		},
		Then{
			rows: []domain.Association{
				{ObjectId: 1, MandantId: 10},
				{ObjectId: 1, MandantId: 12},
				{ObjectId: 2, MandantId: 20},
			},
			summary: mandantsync.Summary{Processed: 2, Created: 3, Added: 3},
		},
	))

	t.Run("shared names fail objects under error, leaving them untouched", theory(
		When{
			objects:  collidingObjects,
			mandants: mandantsWithCollision,
			before:   assocmock.Table{1: domain.NewMandantSet(20)},
			options:  []mandantsync.Option{mandantsync.WithConflictPolicy(mandantsync.Error)},
		},
		Then{
			rows: []domain.Association{
				{ObjectId: 1, MandantId: 20},
				{ObjectId: 2, MandantId: 20},
			},
			summary: mandantsync.Summary{Processed: 2, Created: 1, Added: 1, Failed: 1},
		},
	))

	t.Run("no objects", theory(
		When{mandants: []domain.Mandant{{Id: 10, Name: "Acme"}}},
		Then{rows: []domain.Association{}, summary: mandantsync.Summary{}},
	))
}

func TestSynchronizer_Run_Idempotent(t *testing.T) {
	ctx := context.Background()
	tbl := assocmock.Table{7: domain.NewMandantSet(99)}
	testee := mandantsync.New(
		objectmock.Returning(t,
			obj(1, `{"besitzer": "Acme", "betreiber": "Other"}`),
			obj(2, `{"hausmeister": "acme"}`),
			obj(7, `null`),
		),
		mandantmock.Returning(t,
			domain.Mandant{Id: 10, Name: "Acme"},
			domain.Mandant{Id: 20, Name: "Other"},
			domain.Mandant{Id: 99, Name: "Gone"},
		),
		assocmock.InMemory(t, tbl),
	)

	first := try.To(testee.Run(ctx)).OrFatal(t)
	rowsAfterFirst := tbl.Rows()
	second := try.To(testee.Run(ctx)).OrFatal(t)
	rowsAfterSecond := tbl.Rows()

	if !cmp.SliceEq(rowsAfterFirst, rowsAfterSecond) {
		t.Errorf("rows changed:\n===first===\n%+v\n===second===\n%+v", rowsAfterFirst, rowsAfterSecond)
	}
	if first.Created != second.Created {
		t.Errorf("created: first = %d, second = %d", first.Created, second.Created)
	}
	if second.Added != 0 || second.Removed != 0 {
		t.Errorf("second run changes associations: %+v", second)
	}
	if first.Removed != 1 {
		t.Errorf("first run should remove a stale association: %+v", first)
	}
}

func TestSynchronizer_Run_PerObjectFailure(t *testing.T) {
	ctx := context.Background()
	tbl := assocmock.Table{}
	assoc := assocmock.InMemory(t, tbl)
	inMemory := assoc.Impl.Replace
	assoc.Impl.Replace = func(ctx context.Context, objectId int, mandantIds []int) (domain.AssociationDelta, error) {
		if objectId == 2 {
			return domain.AssociationDelta{}, fmt.Errorf("mandant: %w", kerr.ErrMissing)
		}
		return inMemory(ctx, objectId, mandantIds)
	}

	logger := newLogRecorder()
	observer := &observerRecorder{}
	testee := mandantsync.New(
		objectmock.Returning(t,
			obj(1, `{"besitzer": "Acme"}`),
			obj(2, `{"besitzer": "Acme"}`),
			obj(3, `{"besitzer": "Acme"}`),
		),
		mandantmock.Returning(t, domain.Mandant{Id: 10, Name: "Acme"}),
		assoc,
		mandantsync.WithLogger(logger),
		mandantsync.WithObserver(observer),
	)

	summary := try.To(testee.Run(ctx)).OrFatal(t)

	expected := mandantsync.Summary{Processed: 3, Created: 2, Added: 2, Failed: 1}
	if summary != expected {
		t.Errorf("summary: actual = %+v, expected = %+v", summary, expected)
	}
	if assoc.Calls.Replace.Times() != 3 {
		t.Errorf("Replace is called %d times", assoc.Calls.Replace.Times())
	}
	if rows := tbl.Rows(); !cmp.SliceEq(rows, []domain.Association{
		{ObjectId: 1, MandantId: 10},
		{ObjectId: 3, MandantId: 10},
	}) {
		t.Errorf("unexpected rows: %+v", rows)
	}
	if logger.count("error", "object 2") != 1 {
		t.Errorf("failure is not logged with object id: %+v", logger.lines["error"])
	}
	if !cmp.SliceEq(observer.outcomes, []mandantsync.Outcome{
		mandantsync.Synchronized, mandantsync.Failed, mandantsync.Synchronized,
	}) {
		t.Errorf("unexpected outcomes: %v", observer.outcomes)
	}
	if len(observer.runs) != 1 || observer.runs[0] != nil {
		t.Errorf("unexpected runs: %v", observer.runs)
	}
}

func TestSynchronizer_Run_FatalFailure(t *testing.T) {
	expectedErr := errors.New("fake error")

	t.Run("listing objects", func(t *testing.T) {
		objects := objectmock.New(t)
		objects.Impl.List = func(context.Context) ([]domain.Object, error) {
			return nil, expectedErr
		}
		mandants := mandantmock.Returning(t, domain.Mandant{Id: 10, Name: "Acme"})
		assoc := assocmock.New(t)
		observer := &observerRecorder{}

		testee := mandantsync.New(objects, mandants, assoc, mandantsync.WithObserver(observer))
		if _, err := testee.Run(context.Background()); !errors.Is(err, expectedErr) {
			t.Errorf("unexpected error: %v", err)
		}
		if assoc.Calls.Replace.Times() != 0 {
			t.Error("associations are touched")
		}
		if len(observer.runs) != 1 || !errors.Is(observer.runs[0], expectedErr) {
			t.Errorf("unexpected runs: %v", observer.runs)
		}
	})

	t.Run("listing mandants", func(t *testing.T) {
		objects := objectmock.Returning(t, obj(1, `{"besitzer": "Acme"}`))
		mandants := mandantmock.New(t)
		mandants.Impl.List = func(context.Context) ([]domain.Mandant, error) {
			return nil, expectedErr
		}
		assoc := assocmock.New(t)

		testee := mandantsync.New(objects, mandants, assoc)
		if _, err := testee.Run(context.Background()); !errors.Is(err, expectedErr) {
			t.Errorf("unexpected error: %v", err)
		}
		if assoc.Calls.Replace.Times() != 0 {
			t.Error("associations are touched")
		}
	})
}

func TestSynchronizer_Run_DatabaseUnavailable(t *testing.T) {
	lost := pgerrors.Unavailable{Cause: &pgconn.PgError{Code: pgerrcode.ConnectionFailure}}

	tbl := assocmock.Table{}
	assoc := assocmock.InMemory(t, tbl)
	inMemory := assoc.Impl.Replace
	assoc.Impl.Replace = func(ctx context.Context, objectId int, mandantIds []int) (domain.AssociationDelta, error) {
		if objectId == 2 {
			return domain.AssociationDelta{}, fmt.Errorf("replace: %w", lost)
		}
		return inMemory(ctx, objectId, mandantIds)
	}
	observer := &observerRecorder{}

	testee := mandantsync.New(
		objectmock.Returning(t,
			obj(1, `{"besitzer": "Acme"}`),
			obj(2, `{"besitzer": "Acme"}`),
			obj(3, `{"besitzer": "Acme"}`),
		),
		mandantmock.Returning(t, domain.Mandant{Id: 10, Name: "Acme"}),
		assoc,
		mandantsync.WithObserver(observer),
	)

	summary, err := testee.Run(context.Background())
	if !errors.Is(err, kerr.ErrUnavailable) {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := mandantsync.Summary{Processed: 2, Created: 1, Added: 1, Failed: 1}
	if summary != expected {
		t.Errorf("summary: actual = %+v, expected = %+v", summary, expected)
	}
	if assoc.Calls.Replace.Times() != 2 {
		t.Errorf("objects after the connection loss are processed: %d", assoc.Calls.Replace.Times())
	}
	if len(observer.runs) != 1 || !errors.Is(observer.runs[0], kerr.ErrUnavailable) {
		t.Errorf("unexpected runs: %v", observer.runs)
	}
}

func TestSynchronizer_Run_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tbl := assocmock.Table{}
	assoc := assocmock.InMemory(t, tbl)
	inMemory := assoc.Impl.Replace
	assoc.Impl.Replace = func(ctx context.Context, objectId int, mandantIds []int) (domain.AssociationDelta, error) {
		if objectId == 2 {
			cancel()
			return domain.AssociationDelta{}, fmt.Errorf("replace: %w", context.Canceled)
		}
		return inMemory(ctx, objectId, mandantIds)
	}

	testee := mandantsync.New(
		objectmock.Returning(t,
			obj(1, `{"besitzer": "Acme"}`),
			obj(2, `{"besitzer": "Acme"}`),
			obj(3, `{"besitzer": "Acme"}`),
		),
		mandantmock.Returning(t, domain.Mandant{Id: 10, Name: "Acme"}),
		assoc,
	)

	summary, err := testee.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Processed != 1 || summary.Failed != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if assoc.Calls.Replace.Times() != 2 {
		t.Errorf("objects after cancellation are processed: %d", assoc.Calls.Replace.Times())
	}
}

func TestSynchronizer_Run_Progress(t *testing.T) {
	objects := []domain.Object{}
	for i := range 7 {
		objects = append(objects, obj(i+1, `{"besitzer": "Acme"}`))
	}

	for _, testcase := range []struct {
		every    int
		expected int
	}{
		{every: 3, expected: 2},
		{every: 1, expected: 7},
		{every: 0, expected: 0},
		{every: 50, expected: 0},
	} {
		t.Run(fmt.Sprintf("every %d", testcase.every), func(t *testing.T) {
			logger := newLogRecorder()
			testee := mandantsync.New(
				objectmock.Returning(t, objects...),
				mandantmock.Returning(t, domain.Mandant{Id: 10, Name: "Acme"}),
				assocmock.InMemory(t, assocmock.Table{}),
				mandantsync.WithLogger(logger),
				mandantsync.WithProgressEvery(testcase.every),
			)
			try.To(testee.Run(context.Background())).OrFatal(t)

			if n := logger.count("info", "progress:"); n != testcase.expected {
				t.Errorf("progress logs: actual = %d, expected = %d", n, testcase.expected)
			}
			if n := logger.count("info", "synchronization done"); n != 1 {
				t.Errorf("summary logs: %d", n)
			}
		})
	}
}

func TestSynchronizer_TryRun(t *testing.T) {
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	objects := objectmock.New(t)
	objects.Impl.List = func(context.Context) ([]domain.Object, error) {
		close(entered)
		<-release
		return []domain.Object{}, nil
	}

	testee := mandantsync.New(
		objects,
		mandantmock.Returning(t),
		assocmock.InMemory(t, assocmock.Table{}),
	)

	done := make(chan error, 1)
	go func() {
		_, err := testee.Run(ctx)
		done <- err
	}()
	<-entered

	if _, err := testee.TryRun(ctx); !errors.Is(err, mandantsync.ErrBusy) {
		t.Errorf("TryRun during a run: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	objects.Impl.List = func(context.Context) ([]domain.Object, error) {
		return []domain.Object{}, nil
	}
	if _, err := testee.TryRun(ctx); err != nil {
		t.Errorf("TryRun after a run: %v", err)
	}
}
