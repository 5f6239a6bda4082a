package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mfg-academy/training-scheduler-api/internal/dto"
	"github.com/mfg-academy/training-scheduler-api/internal/models"
	appErrors "github.com/mfg-academy/training-scheduler-api/pkg/errors"
)

func TestScheduleGeneratorServiceGenerate(t *testing.T) {
	service := newGeneratorFixture(t, generatorFixtureConfig{})

	seed := int64(11)
	resp, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{
		Year: 2026, Month: 3, Seed: &seed,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ProposalID)
	assert.Equal(t, 2026, resp.Year)
	assert.Equal(t, 3, resp.Month)
	assert.NotEmpty(t, resp.Sessions)
	assert.Empty(t, resp.Conflicts)
	assert.Equal(t, len(resp.Sessions), resp.Stats.SessionCount)
	assert.Greater(t, resp.Stats.PerShift["A1"], 0)
}

func TestScheduleGeneratorServiceGenerateRejectsUnknownNames(t *testing.T) {
	service := newGeneratorFixture(t, generatorFixtureConfig{})

	_, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{
		Year: 2026, Month: 3,
		Requirements: map[string]int{"Underwater Basket Weaving": 2},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownCourse.Code, appErrors.FromError(err).Code)

	_, err = service.Generate(context.Background(), dto.GenerateScheduleRequest{
		Year: 2026, Month: 3,
		RemovedInstructors: []string{"Nobody"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownInstructor.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceGenerateValidation(t *testing.T) {
	service := newGeneratorFixture(t, generatorFixtureConfig{})

	_, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{Year: 2026, Month: 13})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceGetProposalExpiry(t *testing.T) {
	service := newGeneratorFixture(t, generatorFixtureConfig{ttl: time.Nanosecond})

	seed := int64(11)
	resp, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{Year: 2026, Month: 3, Seed: &seed})
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	_, err = service.GetProposal(context.Background(), resp.ProposalID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrProposalExpired.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceUpdateSession(t *testing.T) {
	service := newGeneratorFixture(t, generatorFixtureConfig{})
	resp := mustGenerate(t, service)

	var target models.Session
	for _, sess := range resp.Sessions {
		if !sess.IsShadow() && !sess.AllDay {
			target = sess
			break
		}
	}
	require.NotEmpty(t, target.ID)

	updated, err := service.UpdateSession(context.Background(), resp.ProposalID, target.ID, dto.UpdateSessionRequest{
		Course:        "Rynglok - Axial Swage",
		Instructor:    target.Instructor,
		Room:          target.Room,
		Date:          target.Date,
		ClassStartMin: target.ClassStartMin,
	})
	require.NoError(t, err)

	found := false
	for _, sess := range updated.Sessions {
		if sess.ID == target.ID {
			found = true
			assert.Equal(t, "Rynglok - Axial Swage", sess.Course)
			assert.Equal(t, target.ClassStartMin+120, sess.ClassEndMin, "end time follows the new course duration")
		}
	}
	assert.True(t, found)
}

func TestScheduleGeneratorServiceUpdateSessionOutOfWindow(t *testing.T) {
	service := newGeneratorFixture(t, generatorFixtureConfig{})
	resp := mustGenerate(t, service)
	target := resp.Sessions[0]

	_, err := service.UpdateSession(context.Background(), resp.ProposalID, target.ID, dto.UpdateSessionRequest{
		Course:        "Safety Wire / Cable Installation",
		Instructor:    target.Instructor,
		Room:          "Galileo",
		Date:          "2026-03-02",
		ClassStartMin: 900, // 3h from 15:00 overruns every shift
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSessionOutOfWindow.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceAddAndRemoveSession(t *testing.T) {
	service := newGeneratorFixture(t, generatorFixtureConfig{})
	resp := mustGenerate(t, service)
	before := len(resp.Sessions)

	added, err := service.AddSession(context.Background(), resp.ProposalID, dto.AddSessionRequest{
		Shift:         "A1",
		Course:        "Rynglok - Axial Swage",
		Instructor:    "Katie",
		Room:          "Galileo",
		Date:          "2026-03-02",
		ClassStartMin: 780,
	})
	require.NoError(t, err)
	assert.Len(t, added.Sessions, before+1)

	newest := added.Sessions[len(added.Sessions)-1]
	assert.Equal(t, "Rynglok - Axial Swage", newest.Course)
	assert.Equal(t, 750, newest.PrepStartMin, "prep backs off half an hour")

	removed, err := service.RemoveSession(context.Background(), resp.ProposalID, newest.ID)
	require.NoError(t, err)
	assert.Len(t, removed.Sessions, before)

	_, err = service.RemoveSession(context.Background(), resp.ProposalID, "no-such-session")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceAddSessionWrongWeekday(t *testing.T) {
	service := newGeneratorFixture(t, generatorFixtureConfig{})
	resp := mustGenerate(t, service)

	_, err := service.AddSession(context.Background(), resp.ProposalID, dto.AddSessionRequest{
		Shift:         "A1",
		Course:        "Rynglok - Axial Swage",
		Instructor:    "Katie",
		Room:          "Galileo",
		Date:          "2026-03-06", // a Friday, outside the A1 pattern
		ClassStartMin: 780,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceSave(t *testing.T) {
	txProvider, mock := newGeneratorTxMock(t)
	schedules := &monthlyScheduleRepoStub{}
	sessions := &monthlySessionRepoStub{}
	service := newGeneratorFixture(t, generatorFixtureConfig{
		tx:        txProvider,
		schedules: schedules,
		sessions:  sessions,
	})
	resp := mustGenerate(t, service)

	mock.ExpectBegin()
	mock.ExpectCommit()

	id, err := service.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: resp.ProposalID})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.Len(t, schedules.items, 1)
	assert.Equal(t, models.MonthlyScheduleStatusDraft, schedules.items[0].Status)
	assert.Len(t, sessions.items[id], len(resp.Sessions))
	assert.NoError(t, mock.ExpectationsWereMet())

	// the proposal is consumed by a successful save
	_, err = service.GetProposal(context.Background(), resp.ProposalID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrProposalExpired.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceSavePublish(t *testing.T) {
	txProvider, mock := newGeneratorTxMock(t)
	schedules := &monthlyScheduleRepoStub{}
	service := newGeneratorFixture(t, generatorFixtureConfig{
		tx:        txProvider,
		schedules: schedules,
		sessions:  &monthlySessionRepoStub{},
	})
	resp := mustGenerate(t, service)

	mock.ExpectBegin()
	mock.ExpectCommit()

	id, err := service.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: resp.ProposalID, Publish: true})
	require.NoError(t, err)
	found, err := schedules.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.MonthlyScheduleStatusPublished, found.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServiceSaveBlocksConflicts(t *testing.T) {
	txProvider, _ := newGeneratorTxMock(t)
	service := newGeneratorFixture(t, generatorFixtureConfig{
		tx:        txProvider,
		schedules: &monthlyScheduleRepoStub{},
		sessions:  &monthlySessionRepoStub{},
	})
	resp := mustGenerate(t, service)

	// force an instructor overlap through a manual edit
	target := resp.Sessions[0]
	_, err := service.AddSession(context.Background(), resp.ProposalID, dto.AddSessionRequest{
		Shift:         target.Shift,
		Course:        target.Course,
		Instructor:    target.Instructor,
		Room:          "Newton",
		Date:          target.Date,
		ClassStartMin: target.ClassStartMin,
	})
	require.NoError(t, err)

	_, err = service.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: resp.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceUpdateShadowSessionRejected(t *testing.T) {
	service := newGeneratorFixture(t, generatorFixtureConfig{})
	resp := mustGenerate(t, service)

	var shadow models.Session
	for _, sess := range resp.Sessions {
		if sess.IsShadow() {
			shadow = sess
			break
		}
	}
	require.NotEmpty(t, shadow.ID, "a full month places at least one shadow")

	_, err := service.UpdateSession(context.Background(), resp.ProposalID, shadow.ID, dto.UpdateSessionRequest{
		Course:        shadow.Course,
		Instructor:    shadow.Instructor,
		Room:          shadow.Room,
		Date:          shadow.Date,
		ClassStartMin: shadow.ClassStartMin,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	// the shadow keeps its lead marker
	current, err := service.GetProposal(context.Background(), resp.ProposalID)
	require.NoError(t, err)
	for _, sess := range current.Sessions {
		if sess.ID == shadow.ID {
			assert.Equal(t, shadow.ShadowOf, sess.ShadowOf)
		}
	}
}

func TestScheduleGeneratorServiceEditsDetachFromSnapshot(t *testing.T) {
	service := newGeneratorFixture(t, generatorFixtureConfig{})
	resp := mustGenerate(t, service)

	snapshot, err := service.GetProposal(context.Background(), resp.ProposalID)
	require.NoError(t, err)

	var target models.Session
	for _, sess := range snapshot.Sessions {
		if !sess.IsShadow() && !sess.AllDay {
			target = sess
			break
		}
	}
	require.NotEmpty(t, target.ID)

	_, err = service.UpdateSession(context.Background(), resp.ProposalID, target.ID, dto.UpdateSessionRequest{
		Course:        "Rynglok - Axial Swage",
		Instructor:    target.Instructor,
		Room:          target.Room,
		Date:          target.Date,
		ClassStartMin: target.ClassStartMin,
	})
	require.NoError(t, err)

	// the previously fetched snapshot is untouched by the edit
	for _, sess := range snapshot.Sessions {
		if sess.ID == target.ID {
			assert.Equal(t, target.Course, sess.Course)
		}
	}

	current, err := service.GetProposal(context.Background(), resp.ProposalID)
	require.NoError(t, err)
	for _, sess := range current.Sessions {
		if sess.ID == target.ID {
			assert.Equal(t, "Rynglok - Axial Swage", sess.Course)
		}
	}
}

func TestScheduleGeneratorServiceConcurrentEdits(t *testing.T) {
	service := newGeneratorFixture(t, generatorFixtureConfig{})
	resp := mustGenerate(t, service)
	before := len(resp.Sessions)

	dates := []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05"}
	var wg sync.WaitGroup
	for _, date := range dates {
		wg.Add(1)
		go func(date string) {
			defer wg.Done()
			_, err := service.AddSession(context.Background(), resp.ProposalID, dto.AddSessionRequest{
				Shift:         "A1",
				Course:        "Rynglok - Axial Swage",
				Instructor:    "Katie",
				Room:          "Galileo",
				Date:          date,
				ClassStartMin: 780,
			})
			assert.NoError(t, err)
		}(date)
	}
	wg.Wait()

	// concurrent editors each work on a private copy; the stored proposal
	// stays coherent, keeping at least the last writer's addition
	current, err := service.GetProposal(context.Background(), resp.ProposalID)
	require.NoError(t, err)
	assert.Greater(t, len(current.Sessions), before)
	assert.LessOrEqual(t, len(current.Sessions), before+len(dates))
}

func TestScheduleGeneratorServiceListAndSessions(t *testing.T) {
	schedules := &monthlyScheduleRepoStub{items: []models.MonthlySchedule{{ID: "sch-1", Year: 2026, Month: 3, Version: 1}}}
	sessions := &monthlySessionRepoStub{items: map[string][]models.MonthlyScheduleSession{
		"sch-1": {{ID: "ses-1", ScheduleID: "sch-1", Course: "Safety Wire / Cable Installation"}},
	}}
	service := newGeneratorFixture(t, generatorFixtureConfig{schedules: schedules, sessions: sessions})

	list, err := service.List(context.Background(), dto.ScheduleListQuery{Year: 2026, Month: 3})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	rows, err := service.GetSessions(context.Background(), "sch-1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = service.GetSessions(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.NoError(t, service.Delete(context.Background(), "sch-1"))
	err = service.Delete(context.Background(), "sch-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func mustGenerate(t *testing.T, service *ScheduleGeneratorService) *dto.GenerateScheduleResponse {
	t.Helper()
	seed := int64(11)
	resp, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{Year: 2026, Month: 3, Seed: &seed})
	require.NoError(t, err)
	return resp
}

// --- Fixtures ---

type generatorFixtureConfig struct {
	ttl       time.Duration
	tx        txProvider
	schedules monthlyScheduleRepository
	sessions  monthlySessionRepository
}

func newGeneratorFixture(t *testing.T, cfg generatorFixtureConfig) *ScheduleGeneratorService {
	t.Helper()
	schedules := cfg.schedules
	if schedules == nil {
		schedules = &monthlyScheduleRepoStub{}
	}
	sessions := cfg.sessions
	if sessions == nil {
		sessions = &monthlySessionRepoStub{}
	}
	ttl := cfg.ttl
	if ttl == 0 {
		ttl = time.Hour
	}
	return NewScheduleGeneratorService(
		nil,
		schedules,
		sessions,
		cfg.tx,
		validator.New(),
		zap.NewNop(),
		nil,
		ScheduleGeneratorConfig{ProposalTTL: ttl},
	)
}

type monthlyScheduleRepoStub struct {
	items []models.MonthlySchedule
}

func (s *monthlyScheduleRepoStub) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, record *models.MonthlySchedule) error {
	record.ID = fmt.Sprintf("sch-%d", len(s.items)+1)
	record.Version = len(s.items) + 1
	s.items = append(s.items, *record)
	return nil
}

func (s *monthlyScheduleRepoStub) List(ctx context.Context, year, month int) ([]models.MonthlyScheduleMeta, error) {
	var out []models.MonthlyScheduleMeta
	for _, item := range s.items {
		out = append(out, models.MonthlyScheduleMeta{ID: item.ID, Year: item.Year, Month: item.Month, Version: item.Version, Status: item.Status})
	}
	return out, nil
}

func (s *monthlyScheduleRepoStub) FindByID(ctx context.Context, id string) (*models.MonthlySchedule, error) {
	for _, item := range s.items {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *monthlyScheduleRepoStub) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.MonthlyScheduleStatus) error {
	for idx := range s.items {
		if s.items[idx].ID == id {
			s.items[idx].Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *monthlyScheduleRepoStub) Delete(ctx context.Context, id string) error {
	for idx, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:idx], s.items[idx+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type monthlySessionRepoStub struct {
	items map[string][]models.MonthlyScheduleSession
}

func (s *monthlySessionRepoStub) InsertBatch(ctx context.Context, exec sqlx.ExtContext, rows []models.MonthlyScheduleSession) error {
	if s.items == nil {
		s.items = make(map[string][]models.MonthlyScheduleSession)
	}
	for _, row := range rows {
		s.items[row.ScheduleID] = append(s.items[row.ScheduleID], row)
	}
	return nil
}

func (s *monthlySessionRepoStub) ListBySchedule(ctx context.Context, scheduleID string) ([]models.MonthlyScheduleSession, error) {
	return s.items[scheduleID], nil
}

type generatorTxMock struct {
	db *sqlx.DB
}

func newGeneratorTxMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &generatorTxMock{db: sqlxdb}, mock
}

func (m *generatorTxMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return m.db.BeginTxx(ctx, opts)
}
