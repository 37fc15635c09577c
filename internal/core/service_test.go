package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/workbook-migrate/internal/core"
	_ "github.com/JonMunkholm/workbook-migrate/internal/core/tables"
	"github.com/JonMunkholm/workbook-migrate/internal/parser"
	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/store"
	"github.com/JonMunkholm/workbook-migrate/internal/store/mocks"
	"github.com/JonMunkholm/workbook-migrate/internal/workbook"
	"github.com/JonMunkholm/workbook-migrate/internal/workbook/workbooktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var weekEnding = time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC)

func newService(t *testing.T, st store.Store, runs store.RunLog, opts core.Options) *core.Service {
	t.Helper()
	svc, err := core.NewService(st, runs, opts)
	require.NoError(t, err)
	return svc
}

func schemaOf(t *testing.T, table record.Table) store.Schema {
	t.Helper()
	def, ok := core.Get(table)
	require.True(t, ok, "table %s not registered", table)
	return def.Schema
}

func tableResult(t *testing.T, r *core.MigrationResult, table record.Table) core.TableResult {
	t.Helper()
	for _, tr := range r.Tables {
		if tr.Table == table {
			return tr
		}
	}
	t.Fatalf("no result for table %s", table)
	return core.TableResult{}
}

// collect reads ch until it closes or the timeout passes.
func collect(t *testing.T, ch <-chan core.ProgressEvent) []core.ProgressEvent {
	t.Helper()
	var events []core.ProgressEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, e)
		case <-timeout:
			t.Fatalf("progress stream did not finish; got %d events", len(events))
		}
	}
}

// ============================================================================
// Service construction
// ============================================================================

func TestNewService_NilStore(t *testing.T) {
	_, err := core.NewService(nil, nil, core.Options{})
	assert.Error(t, err)
}

func TestListTables_ImportOrder(t *testing.T) {
	svc := newService(t, store.NewMemory(), nil, core.Options{})

	tables := svc.ListTables()
	require.Len(t, tables, len(record.ImportOrder))
	for i, info := range tables {
		assert.Equal(t, record.ImportOrder[i], info.Key)
	}

	byGroup := svc.ListTablesByGroup()
	assert.Len(t, byGroup["Financial"], 2)
	assert.Len(t, byGroup["Cash Position"], 1)
}

// ============================================================================
// Dry run
// ============================================================================

func TestParseWorkbook_HappyPath(t *testing.T) {
	svc := newService(t, store.NewMemory(), nil, core.Options{})

	preview, err := svc.ParseWorkbook(workbooktest.HappyPath().Bytes(t))
	require.NoError(t, err)

	assert.Equal(t, 2, preview.TotalRecords)
	assert.Equal(t, 0, preview.TotalWarnings)
	assert.Empty(t, preview.AllWarnings)
	require.Len(t, preview.Tables, len(record.ImportOrder))

	counts := make(map[record.Table]int)
	for _, tp := range preview.Tables {
		counts[tp.Table] = tp.RecordCount
		assert.Len(t, tp.Sample, tp.RecordCount)
	}
	assert.Equal(t, 1, counts[record.Financial])
	assert.Equal(t, 1, counts[record.Revenue])

	rev := preview.Tables[record.Revenue.Position()-1]
	require.Len(t, rev.Sample, 1)
	assert.Equal(t, "2025-01-25", rev.Sample[0]["week_date"])
	assert.Equal(t, "class_1a", rev.Sample[0]["category"])
	assert.Equal(t, 95420.0, rev.Sample[0]["amount"])
}

func TestParseWorkbook_SampleLimit(t *testing.T) {
	svc := newService(t, store.NewMemory(), nil, core.Options{SampleSize: 1})

	preview, err := svc.ParseWorkbook(workbooktest.Full().Bytes(t))
	require.NoError(t, err)

	assert.Equal(t, 19, preview.TotalRecords)
	for _, tp := range preview.Tables {
		assert.LessOrEqual(t, len(tp.Sample), 1, tp.Table)
	}
}

func TestParseWorkbook_ParserFailureBecomesWarning(t *testing.T) {
	svc := newService(t, store.NewMemory(), nil, core.Options{})

	// Cash sheet without a financial week or an As At row cannot be dated.
	data := workbooktest.New().
		Sheet("Cash Position", []any{"Account", "Balance"}, []any{"Operating", 100}).
		Bytes(t)

	preview, err := svc.ParseWorkbook(data)
	require.NoError(t, err)

	require.Len(t, preview.WorkbookWarnings, 1)
	assert.Contains(t, preview.WorkbookWarnings[0], "Cash Position")
	assert.Equal(t, 1, preview.TotalWarnings)
	assert.Equal(t, 0, preview.TotalRecords)
}

func TestParseWorkbook_Errors(t *testing.T) {
	svc := newService(t, store.NewMemory(), nil, core.Options{})

	_, err := svc.ParseWorkbook(nil)
	assert.ErrorIs(t, err, core.ErrNoFile)

	_, err = svc.ParseWorkbook([]byte("not a workbook"))
	assert.ErrorIs(t, err, core.ErrWorkbookLoad)
}

func TestDryRun_DoesNotTouchStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	// No expectations: any store call fails the test.
	st := mocks.NewMockStore(ctrl)
	svc := newService(t, st, nil, core.Options{})

	for i := 0; i < 3; i++ {
		resp, err := svc.DryRun(context.Background(), "weekly.xlsx", workbooktest.Full().Bytes(t))
		require.NoError(t, err)
		assert.NotEmpty(t, resp.JobID)
		assert.Equal(t, 19, resp.Preview.TotalRecords)
	}
	assert.Equal(t, 3, svc.JobCount())
}

func TestDryRun_CreatesJob(t *testing.T) {
	svc := newService(t, store.NewMemory(), nil, core.Options{})

	resp, err := svc.DryRun(context.Background(), "weekly.xlsx", workbooktest.HappyPath().Bytes(t))
	require.NoError(t, err)

	job, err := svc.Job(resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, core.JobPreviewed, job.State)
	assert.Equal(t, "weekly.xlsx", job.FileName)
	assert.Same(t, resp.Preview, job.Preview)
	assert.Nil(t, job.Result)
}

// ============================================================================
// Import
// ============================================================================

func TestImportData_HappyPath(t *testing.T) {
	mem := store.NewMemory()
	svc := newService(t, mem, nil, core.Options{})

	result := svc.ImportData(context.Background(), workbooktest.HappyPath().Bytes(t), "job-1")

	assert.True(t, result.Success)
	assert.Equal(t, "job-1", result.JobID)
	assert.Equal(t, 2, result.TotalRecords)
	assert.Equal(t, 2, result.TotalInserted)
	assert.Equal(t, 0, result.TotalUpdated)
	assert.Equal(t, 0, result.TotalWarnings)
	assert.Empty(t, result.FailedTables)
	assert.Len(t, result.Tables, len(record.ImportOrder))

	fin, err := mem.FindByNaturalKey(context.Background(), schemaOf(t, record.Financial),
		record.NaturalKey{WeekDate: weekEnding})
	require.NoError(t, err)
	require.NotNil(t, fin)
	require.NotNil(t, fin.Values["total_trading_income"])
	assert.InDelta(t, 310523.45, *fin.Values["total_trading_income"], 0.001)
	assert.Equal(t, store.DataSourceWorkbook, fin.DataSource)

	rev, err := mem.FindByNaturalKey(context.Background(), schemaOf(t, record.Revenue),
		record.NaturalKey{WeekDate: weekEnding, Discriminator: "class_1a"})
	require.NoError(t, err)
	require.NotNil(t, rev)
	assert.InDelta(t, 95420.0, *rev.Values["amount"], 0.001)
}

func TestImportData_Idempotent(t *testing.T) {
	mem := store.NewMemory()
	svc := newService(t, mem, nil, core.Options{})
	data := workbooktest.Full().Bytes(t)

	first := svc.ImportData(context.Background(), data, "first")
	require.True(t, first.Success)
	assert.Equal(t, 19, first.TotalInserted)

	counts := make(map[record.Table]int)
	for _, def := range core.All() {
		counts[def.Info.Key] = mem.Count(def.Schema)
	}

	second := svc.ImportData(context.Background(), data, "second")
	require.True(t, second.Success)
	assert.Equal(t, 0, second.TotalInserted)
	assert.Equal(t, first.TotalRecords, second.TotalUpdated)

	for _, def := range core.All() {
		assert.Equal(t, counts[def.Info.Key], mem.Count(def.Schema), def.Info.Key)
		tr := tableResult(t, second, def.Info.Key)
		assert.Equal(t, 0, tr.Inserted, def.Info.Key)
		assert.Equal(t, tableResult(t, first, def.Info.Key).Inserted, tr.Updated, def.Info.Key)
	}
}

func TestImportData_RerunAfterEdit(t *testing.T) {
	mem := store.NewMemory()
	svc := newService(t, mem, nil, core.Options{})

	svc.ImportData(context.Background(), workbooktest.HappyPath().Bytes(t), "original")

	edited := workbooktest.New().Sheet("Financial",
		workbooktest.FinancialHeader,
		[]any{"2025-01-25", 320000, 120400.10, 199599.90, 1500, 80210.5, 65000, 120889.40, 99000},
	).Bytes(t)
	result := svc.ImportData(context.Background(), edited, "edited")

	require.True(t, result.Success)
	assert.Equal(t, 0, result.TotalInserted)
	assert.Equal(t, 2, result.TotalUpdated)

	fin, err := mem.FindByNaturalKey(context.Background(), schemaOf(t, record.Financial),
		record.NaturalKey{WeekDate: weekEnding})
	require.NoError(t, err)
	assert.InDelta(t, 320000.0, *fin.Values["total_trading_income"], 0.001)

	rev, err := mem.FindByNaturalKey(context.Background(), schemaOf(t, record.Revenue),
		record.NaturalKey{WeekDate: weekEnding, Discriminator: "class_1a"})
	require.NoError(t, err)
	assert.InDelta(t, 99000.0, *rev.Values["amount"], 0.001)
}

func TestImportData_WarningOnlyRow(t *testing.T) {
	mem := store.NewMemory()
	svc := newService(t, mem, nil, core.Options{})

	data := workbooktest.New().Sheet("Financial",
		workbooktest.FinancialHeader,
		[]any{"2025-01-25", 310523.45, 120400.10, 190123.35, 1500, 80210.5, "", 111412.85, 95420.00},
	).Bytes(t)
	result := svc.ImportData(context.Background(), data, "job")

	require.True(t, result.Success)
	fin := tableResult(t, result, record.Financial)
	assert.Equal(t, 1, fin.Inserted)
	require.Len(t, fin.Warnings, 1)
	assert.Contains(t, fin.Warnings[0], "Wages")

	row, err := mem.FindByNaturalKey(context.Background(), schemaOf(t, record.Financial),
		record.NaturalKey{WeekDate: weekEnding})
	require.NoError(t, err)
	assert.Nil(t, row.Values["wages"])
	assert.NotNil(t, row.Values["net_profit"])
}

func TestImportData_PartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	mem := store.NewMemory()
	st := mocks.NewMockStore(ctrl)

	st.EXPECT().FindByNaturalKey(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(mem.FindByNaturalKey).AnyTimes()
	st.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, s store.Schema, key record.NaturalKey, values record.Values) error {
			if s.Table == record.Leads {
				return errors.New(`new row violates check constraint "leads_non_negative"`)
			}
			return mem.Upsert(ctx, s, key, values)
		}).AnyTimes()

	svc := newService(t, st, nil, core.Options{})
	result := svc.ImportData(context.Background(), workbooktest.Full().Bytes(t), "job")

	assert.False(t, result.Success)
	assert.Equal(t, []record.Table{record.Leads}, result.FailedTables)
	require.Len(t, result.Tables, len(record.ImportOrder))

	leads := tableResult(t, result, record.Leads)
	assert.Equal(t, 0, leads.Inserted)
	assert.Equal(t, 0, leads.Updated)
	require.Len(t, leads.Warnings, 1)
	assert.Contains(t, leads.Warnings[0], "import failed")
	assert.NotEmpty(t, leads.Error)

	// Tables before and after the failure still ran.
	assert.Equal(t, 2, tableResult(t, result, record.Financial).Inserted)
	assert.Equal(t, 2, tableResult(t, result, record.Projects).Inserted)
	assert.Equal(t, 2, tableResult(t, result, record.TeamPerformance).Inserted)
	assert.Equal(t, 2, tableResult(t, result, record.Marketing).Inserted)
	assert.Equal(t, 18, result.TotalInserted)
	assert.Equal(t, 1, result.TotalWarnings)
}

func TestImportData_PartialCountsKept(t *testing.T) {
	ctrl := gomock.NewController(t)
	mem := store.NewMemory()
	st := mocks.NewMockStore(ctrl)

	st.EXPECT().FindByNaturalKey(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(mem.FindByNaturalKey).AnyTimes()

	var mu sync.Mutex
	phoneWrites := 0
	st.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, s store.Schema, key record.NaturalKey, values record.Values) error {
			if s.Table == record.Phone {
				mu.Lock()
				defer mu.Unlock()
				phoneWrites++
				if phoneWrites > 1 {
					return errors.New("connection reset by peer")
				}
			}
			return mem.Upsert(ctx, s, key, values)
		}).AnyTimes()

	svc := newService(t, st, nil, core.Options{})
	result := svc.ImportData(context.Background(), workbooktest.Full().Bytes(t), "job")

	phone := tableResult(t, result, record.Phone)
	assert.Equal(t, 2, phone.Records)
	assert.Equal(t, 1, phone.Inserted)
	assert.Contains(t, phone.Error, "record 2")
	assert.Equal(t, 1, mem.Count(schemaOf(t, record.Phone)))
}

func TestImportData_FatalLoad(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	svc := newService(t, st, nil, core.Options{})

	result := svc.ImportData(context.Background(), []byte("garbage"), "job")

	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Len(t, result.WorkbookWarnings, 1)
	assert.Equal(t, 1, result.TotalWarnings)
	assert.Empty(t, result.Tables)
}

func TestImportData_CancelledContext(t *testing.T) {
	mem := store.NewMemory()
	svc := newService(t, mem, nil, core.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := svc.ImportData(ctx, workbooktest.HappyPath().Bytes(t), "job")

	assert.False(t, result.Success)
	assert.Contains(t, result.FailedTables, record.Financial)
	assert.Equal(t, 0, result.TotalInserted)
}

// ============================================================================
// Background imports and progress
// ============================================================================

func TestStartImport_ProgressOrder(t *testing.T) {
	mem := store.NewMemory()
	svc := newService(t, mem, mem, core.Options{})
	ctx := context.Background()

	resp, err := svc.DryRun(ctx, "weekly.xlsx", workbooktest.Full().Bytes(t))
	require.NoError(t, err)

	events, cancel, err := svc.SubscribeProgress(resp.JobID)
	require.NoError(t, err)
	defer cancel()

	ack, err := svc.StartImport(ctx, resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, core.JobImporting, ack.State)
	assert.Equal(t, len(record.ImportOrder), ack.Tables)

	got := collect(t, events)
	sheets := len(parser.Parsers)
	require.Len(t, got, 1+sheets+1+len(record.ImportOrder)+1)

	assert.Equal(t, core.ProgressEvent{Phase: core.PhaseParsing, Message: got[0].Message}, got[0])
	for i := 1; i <= sheets; i++ {
		assert.Equal(t, core.PhaseParsing, got[i].Phase)
		assert.Equal(t, parser.Parsers[i-1].Sheet().Name, got[i].Sheet)
	}
	parsed := got[sheets+1]
	assert.Equal(t, core.PhaseParsing, parsed.Phase)
	assert.Equal(t, 19, parsed.Total)

	importing := got[sheets+2 : len(got)-1]
	for i, e := range importing {
		assert.Equal(t, core.PhaseImporting, e.Phase)
		assert.Equal(t, record.ImportOrder[i], e.Table)
		assert.Equal(t, i, e.Current)
		assert.Equal(t, len(record.ImportOrder), e.Total)
	}

	last := got[len(got)-1]
	assert.Equal(t, core.PhaseComplete, last.Phase)
	assert.Equal(t, len(record.ImportOrder), last.Current)
	require.NotNil(t, last.Result)
	assert.True(t, last.Result.Success)
	assert.Equal(t, 19, last.Result.TotalInserted)

	job, err := svc.Job(resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, core.JobComplete, job.State)
	assert.Equal(t, last.Result, job.Result)
}

func TestStartImport_FatalLoadEmitsOneError(t *testing.T) {
	svc := newService(t, store.NewMemory(), nil, core.Options{})
	ctx := context.Background()

	resp, err := svc.DryRun(ctx, "weekly.xlsx", workbooktest.HappyPath().Bytes(t))
	require.NoError(t, err)

	// A finished import of a broken workbook, driven directly on the job's topic.
	events, cancel, err := svc.SubscribeProgress(resp.JobID)
	require.NoError(t, err)
	defer cancel()

	result := svc.ImportData(ctx, []byte("garbage"), resp.JobID)
	got := collect(t, events)

	require.Len(t, got, 2)
	assert.Equal(t, core.PhaseParsing, got[0].Phase)
	assert.Equal(t, core.PhaseError, got[1].Phase)
	assert.Same(t, result, got[1].Result)
	assert.True(t, got[1].Terminal())
}

func TestStartImport_RecordsRun(t *testing.T) {
	mem := store.NewMemory()
	svc := newService(t, mem, mem, core.Options{})

	ctx := core.WithRequester(context.Background(), core.Requester{IP: "10.0.0.7", UserAgent: "migrate-test"})

	resp, err := svc.DryRun(ctx, "weekly.xlsx", workbooktest.HappyPath().Bytes(t))
	require.NoError(t, err)
	_, err = svc.StartImport(ctx, resp.JobID)
	require.NoError(t, err)
	require.NoError(t, svc.WaitForImports(context.Background()))

	runs, err := svc.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, resp.JobID, runs[0].JobID)
	assert.Equal(t, "weekly.xlsx", runs[0].FileName)
	assert.True(t, runs[0].Success)
	assert.Equal(t, 2, runs[0].TotalInserted)
	assert.Equal(t, "10.0.0.7", runs[0].ClientIP)
	assert.Equal(t, "migrate-test", runs[0].UserAgent)
	assert.Empty(t, runs[0].FailedTables)
}

func TestStartImport_JobStates(t *testing.T) {
	svc := newService(t, store.NewMemory(), nil, core.Options{})
	ctx := context.Background()

	_, err := svc.StartImport(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrJobNotFound)

	resp, err := svc.DryRun(ctx, "weekly.xlsx", workbooktest.HappyPath().Bytes(t))
	require.NoError(t, err)

	_, err = svc.StartImport(ctx, resp.JobID)
	require.NoError(t, err)
	require.NoError(t, svc.WaitForImports(ctx))

	_, err = svc.StartImport(ctx, resp.JobID)
	assert.ErrorIs(t, err, core.ErrJobConsumed)

	// A late subscriber still sees the terminal event.
	events, cancel, err := svc.SubscribeProgress(resp.JobID)
	require.NoError(t, err)
	defer cancel()
	got := collect(t, events)
	require.Len(t, got, 1)
	assert.Equal(t, core.PhaseComplete, got[0].Phase)
}

func TestSubscribeProgress_AfterTopicRemoved(t *testing.T) {
	svc := newService(t, store.NewMemory(), nil, core.Options{ProgressLinger: time.Millisecond})
	ctx := context.Background()

	resp, err := svc.DryRun(ctx, "weekly.xlsx", workbooktest.HappyPath().Bytes(t))
	require.NoError(t, err)
	_, err = svc.StartImport(ctx, resp.JobID)
	require.NoError(t, err)
	require.NoError(t, svc.WaitForImports(ctx))

	// Let the finished topic be removed.
	time.Sleep(50 * time.Millisecond)

	info, err := svc.Job(resp.JobID)
	require.NoError(t, err)
	require.Equal(t, core.JobComplete, info.State)

	events, cancel, err := svc.SubscribeProgress(resp.JobID)
	require.NoError(t, err)
	defer cancel()
	got := collect(t, events)
	require.Len(t, got, 1)
	assert.Equal(t, core.PhaseComplete, got[0].Phase)
	require.NotNil(t, got[0].Result)
	assert.Equal(t, info.Result.TotalRecords, got[0].Result.TotalRecords)
}

func TestStartImport_TooManyImports(t *testing.T) {
	ctrl := gomock.NewController(t)
	mem := store.NewMemory()
	st := mocks.NewMockStore(ctrl)

	release := make(chan struct{})
	st.EXPECT().FindByNaturalKey(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, s store.Schema, key record.NaturalKey) (*store.Row, error) {
			<-release
			return mem.FindByNaturalKey(ctx, s, key)
		}).AnyTimes()
	st.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(mem.Upsert).AnyTimes()

	svc := newService(t, st, nil, core.Options{MaxConcurrent: 1, MaxWait: 20 * time.Millisecond})
	ctx := context.Background()

	first, err := svc.DryRun(ctx, "a.xlsx", workbooktest.HappyPath().Bytes(t))
	require.NoError(t, err)
	second, err := svc.DryRun(ctx, "b.xlsx", workbooktest.HappyPath().Bytes(t))
	require.NoError(t, err)

	_, err = svc.StartImport(ctx, first.JobID)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.LimiterStatus().Active)

	_, err = svc.StartImport(ctx, second.JobID)
	assert.ErrorIs(t, err, core.ErrTooManyImports)

	job, err := svc.Job(second.JobID)
	require.NoError(t, err)
	assert.Equal(t, core.JobPreviewed, job.State, "rejected job can be retried")

	_, err = svc.StartImport(ctx, first.JobID)
	assert.ErrorIs(t, err, core.ErrImportRunning)

	close(release)
	require.NoError(t, svc.WaitForImports(ctx))
	assert.Equal(t, 0, svc.LimiterStatus().Active)
}

// ============================================================================
// Job expiry
// ============================================================================

func TestJobExpiry(t *testing.T) {
	svc := newService(t, store.NewMemory(), nil, core.Options{JobTTL: time.Minute})
	now := time.Date(2025, 1, 27, 9, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })

	resp, err := svc.DryRun(context.Background(), "weekly.xlsx", workbooktest.HappyPath().Bytes(t))
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 0, svc.SweepJobs())
	_, err = svc.Job(resp.JobID)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = svc.Job(resp.JobID)
	assert.ErrorIs(t, err, core.ErrJobExpired)
	_, err = svc.StartImport(context.Background(), resp.JobID)
	assert.ErrorIs(t, err, core.ErrJobExpired)

	assert.Equal(t, 1, svc.SweepJobs())
	assert.Equal(t, 0, svc.JobCount())

	_, err = svc.Job(resp.JobID)
	assert.ErrorIs(t, err, core.ErrJobNotFound)
	_, _, err = svc.SubscribeProgress(resp.JobID)
	assert.ErrorIs(t, err, core.ErrJobNotFound)
}

func TestStartJobSweeper_StopsOnCancel(t *testing.T) {
	svc := newService(t, store.NewMemory(), nil, core.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartJobSweeper(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

// ============================================================================
// Template
// ============================================================================

func TestWorkbookTemplate(t *testing.T) {
	data, err := core.WorkbookTemplate()
	require.NoError(t, err)

	wb, err := workbook.Open(data)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"Financial", "Sales", "Marketing", "KPIs", "Staff", "Cash Position"}, wb.SheetNames())

	res := parser.ParseAll(wb, nil)
	assert.Equal(t, 0, res.Groups.Total())
	assert.Empty(t, res.SkippedSheets)
	for _, o := range res.Failed() {
		// Without data there is no week to date the cash snapshot with.
		assert.Equal(t, "cash-position", o.Parser)
		assert.ErrorIs(t, o.Err, parser.ErrNoReferenceWeek)
	}
}
