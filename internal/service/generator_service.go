package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/mfg-academy/training-scheduler-api/internal/dto"
	"github.com/mfg-academy/training-scheduler-api/internal/models"
	appErrors "github.com/mfg-academy/training-scheduler-api/pkg/errors"
)

type monthlyScheduleRepository interface {
	CreateVersioned(ctx context.Context, tx sqlx.ExtContext, record *models.MonthlySchedule) error
	List(ctx context.Context, year, month int) ([]models.MonthlyScheduleMeta, error)
	FindByID(ctx context.Context, id string) (*models.MonthlySchedule, error)
	UpdateStatus(ctx context.Context, tx sqlx.ExtContext, id string, status models.MonthlyScheduleStatus) error
	Delete(ctx context.Context, id string) error
}

type monthlySessionRepository interface {
	InsertBatch(ctx context.Context, tx sqlx.ExtContext, rows []models.MonthlyScheduleSession) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.MonthlyScheduleSession, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ScheduleGeneratorService builds monthly schedule proposals, applies
// manual edits, and persists accepted versions.
type ScheduleGeneratorService struct {
	catalog   *models.Catalog
	schedules monthlyScheduleRepository
	sessions  monthlySessionRepository
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	store     *proposalStore
	gapPasses int
}

// ScheduleGeneratorConfig governs generator behaviour.
type ScheduleGeneratorConfig struct {
	ProposalTTL   time.Duration
	GapFillPasses int
}

// NewScheduleGeneratorService wires scheduler dependencies. A nil
// catalog falls back to the standing default catalog.
func NewScheduleGeneratorService(
	catalog *models.Catalog,
	schedules monthlyScheduleRepository,
	sessions monthlySessionRepository,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	metrics *MetricsService,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if catalog == nil {
		catalog = models.DefaultCatalog()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.GapFillPasses <= 0 {
		cfg.GapFillPasses = 3
	}
	return &ScheduleGeneratorService{
		catalog:   catalog,
		schedules: schedules,
		sessions:  sessions,
		tx:        tx,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		store:     newProposalStore(cfg.ProposalTTL),
		gapPasses: cfg.GapFillPasses,
	}
}

// Generate runs the placement engine and caches the result as a proposal
// the caller can edit and save.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}

	reqs := s.catalog.DefaultRequirements()
	for name, count := range req.Requirements {
		if _, ok := s.catalog.Course(name); !ok {
			return nil, appErrors.Clone(appErrors.ErrUnknownCourse, "unknown course in requirements: "+name)
		}
		reqs[name] = count
	}

	quals := models.DefaultQualifications(s.catalog)
	for inst, overrides := range req.Qualifications {
		if _, ok := s.catalog.Instructor(inst); !ok {
			return nil, appErrors.Clone(appErrors.ErrUnknownInstructor, "unknown instructor in qualifications: "+inst)
		}
		for course, state := range overrides {
			if _, ok := s.catalog.Course(course); !ok {
				return nil, appErrors.Clone(appErrors.ErrUnknownCourse, "unknown course in qualifications: "+course)
			}
			quals[inst][course] = state
		}
	}

	removed := make(map[string]bool, len(req.RemovedInstructors))
	for _, name := range req.RemovedInstructors {
		if _, ok := s.catalog.Instructor(name); !ok {
			return nil, appErrors.Clone(appErrors.ErrUnknownInstructor, "unknown instructor in removals: "+name)
		}
		removed[name] = true
	}

	var rng *rand.Rand
	if req.Seed != nil {
		rng = rand.New(rand.NewSource(*req.Seed))
	}

	eng, err := newEngine(engineInput{
		Year:           req.Year,
		Month:          req.Month,
		Catalog:        s.catalog,
		Qualifications: quals,
		Requirements:   reqs,
		Constraints:    req.Constraints,
		Removed:        removed,
		GapFillPasses:  s.gapPasses,
		Rand:           rng,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid constraints")
	}

	started := time.Now()
	result := eng.run()
	conflicts := DetectConflicts(result.Sessions)
	s.metrics.ObserveGeneration(time.Since(started), len(result.Sessions), len(result.Flags), len(conflicts))

	proposal := scheduleProposal{
		ProposalID:  uuid.NewString(),
		Result:      result,
		Constraints: req.Constraints,
		Conflicts:   conflicts,
		RequestedAt: time.Now().UTC(),
	}
	s.store.Save(proposal)

	s.logger.Info("schedule_generated",
		zap.Int("year", req.Year),
		zap.Int("month", req.Month),
		zap.Int("sessions", len(result.Sessions)),
		zap.Int("flags", len(result.Flags)),
		zap.Int("conflicts", len(conflicts)),
	)

	return &dto.GenerateScheduleResponse{
		ProposalID: proposal.ProposalID,
		Year:       result.Year,
		Month:      result.Month,
		Sessions:   result.Sessions,
		Flags:      result.Flags,
		MealBreaks: result.MealBreaks,
		Conflicts:  conflicts,
		Stats:      proposalStats(result),
	}, nil
}

func proposalStats(result *models.GenerationResult) dto.ScheduleProposalStats {
	stats := dto.ScheduleProposalStats{
		SessionCount: len(result.Sessions),
		FlagCount:    len(result.Flags),
		PerShift:     make(map[string]int),
	}
	for _, sess := range result.Sessions {
		stats.PerShift[sess.Shift]++
		if sess.IsShadow() {
			stats.ShadowCount++
		}
	}
	return stats
}

// GetProposal returns a cached proposal by id.
func (s *ScheduleGeneratorService) GetProposal(_ context.Context, proposalID string) (*dto.ProposalResponse, error) {
	proposal, ok := s.store.Get(proposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrProposalExpired, "")
	}
	return &dto.ProposalResponse{
		ProposalID:  proposal.ProposalID,
		Year:        proposal.Result.Year,
		Month:       proposal.Result.Month,
		Sessions:    proposal.Result.Sessions,
		Flags:       proposal.Result.Flags,
		MealBreaks:  proposal.Result.MealBreaks,
		Conflicts:   proposal.Conflicts,
		RequestedAt: proposal.RequestedAt,
	}, nil
}

// UpdateSession rewrites a session inside a proposal and re-runs the
// conflict scan over the edited set.
func (s *ScheduleGeneratorService) UpdateSession(_ context.Context, proposalID, sessionID string, req dto.UpdateSessionRequest) (*dto.ProposalResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session update payload")
	}
	proposal, ok := s.store.Get(proposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrProposalExpired, "")
	}

	idx := -1
	for i, sess := range proposal.Result.Sessions {
		if sess.ID == sessionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found in proposal")
	}

	sess := proposal.Result.Sessions[idx]
	if sess.IsShadow() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "shadow sessions follow their lead session and cannot be edited directly")
	}
	shift, ok := s.catalog.Shift(sess.Shift)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnknownShift, "")
	}
	updated, err := s.buildManualSession(shift, sess.ID, req.Course, req.Instructor, req.Room, req.Date, req.ClassStartMin)
	if err != nil {
		return nil, err
	}
	proposal.Result.Sessions[idx] = *updated
	return s.storeAndRespond(proposal)
}

// AddSession appends a manual session to a proposal.
func (s *ScheduleGeneratorService) AddSession(_ context.Context, proposalID string, req dto.AddSessionRequest) (*dto.ProposalResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	proposal, ok := s.store.Get(proposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrProposalExpired, "")
	}
	shift, ok := s.catalog.Shift(req.Shift)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnknownShift, "")
	}
	sess, err := s.buildManualSession(shift, uuid.NewString(), req.Course, req.Instructor, req.Room, req.Date, req.ClassStartMin)
	if err != nil {
		return nil, err
	}
	proposal.Result.Sessions = append(proposal.Result.Sessions, *sess)
	return s.storeAndRespond(proposal)
}

// RemoveSession drops a session from a proposal.
func (s *ScheduleGeneratorService) RemoveSession(_ context.Context, proposalID, sessionID string) (*dto.ProposalResponse, error) {
	proposal, ok := s.store.Get(proposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrProposalExpired, "")
	}
	kept := proposal.Result.Sessions[:0:0]
	found := false
	for _, sess := range proposal.Result.Sessions {
		if sess.ID == sessionID {
			found = true
			continue
		}
		kept = append(kept, sess)
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found in proposal")
	}
	proposal.Result.Sessions = kept
	return s.storeAndRespond(proposal)
}

func (s *ScheduleGeneratorService) buildManualSession(shift models.Shift, id, courseName, instructor, room, date string, classStart int) (*models.Session, error) {
	course, ok := s.catalog.Course(courseName)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnknownCourse, "")
	}
	if _, ok := s.catalog.Instructor(instructor); !ok {
		return nil, appErrors.Clone(appErrors.ErrUnknownInstructor, "")
	}
	roomKnown := false
	for _, r := range s.catalog.Rooms {
		if r.Name == room {
			roomKnown = true
			break
		}
	}
	if !roomKnown {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown room: "+room)
	}
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date: "+date)
	}
	if !shift.Covers(d.Weekday()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date does not fall on a working day of shift "+shift.Key)
	}
	shiftStart, shiftEnd := shift.Window()
	classEnd := classStart + course.DurationMins()
	if classStart < shiftStart || classEnd > shiftEnd {
		return nil, appErrors.Clone(appErrors.ErrSessionOutOfWindow, "")
	}
	prepStart := classStart - models.PrepMins
	if prepStart < shiftStart {
		prepStart = shiftStart
	}
	return &models.Session{
		ID:            id,
		Date:          date,
		Shift:         shift.Key,
		Course:        course.Name,
		Instructor:    instructor,
		Room:          room,
		PrepStartMin:  prepStart,
		ClassStartMin: classStart,
		ClassEndMin:   classEnd,
		DurationHours: course.DurationHours,
		AllDay:        course.AllDay,
	}, nil
}

func (s *ScheduleGeneratorService) storeAndRespond(proposal scheduleProposal) (*dto.ProposalResponse, error) {
	proposal.Conflicts = DetectConflicts(proposal.Result.Sessions)
	s.store.Save(proposal)
	return &dto.ProposalResponse{
		ProposalID:  proposal.ProposalID,
		Year:        proposal.Result.Year,
		Month:       proposal.Result.Month,
		Sessions:    proposal.Result.Sessions,
		Flags:       proposal.Result.Flags,
		MealBreaks:  proposal.Result.MealBreaks,
		Conflicts:   proposal.Conflicts,
		RequestedAt: proposal.RequestedAt,
	}, nil
}

// Save persists a proposal as a versioned monthly schedule.
func (s *ScheduleGeneratorService) Save(ctx context.Context, req dto.SaveScheduleRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save schedule payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrProposalExpired, "")
	}
	if len(proposal.Conflicts) > 0 && !req.Force {
		return "", appErrors.Clone(appErrors.ErrConflict, "proposal contains unresolved conflicts")
	}
	if s.tx == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	metaPayload := map[string]any{
		"flags":      proposal.Result.Flags,
		"mealBreaks": proposal.Result.MealBreaks,
		"generated":  proposal.RequestedAt,
		"conflicts":  len(proposal.Conflicts),
	}
	metaBytes, marshalErr := json.Marshal(metaPayload)
	if marshalErr != nil {
		return "", appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule metadata")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	record := &models.MonthlySchedule{
		Year:   proposal.Result.Year,
		Month:  proposal.Result.Month,
		Status: models.MonthlyScheduleStatusDraft,
		Meta:   types.JSONText(metaBytes),
	}
	if err = s.schedules.CreateVersioned(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create monthly schedule")
		return "", err
	}

	rows := make([]models.MonthlyScheduleSession, 0, len(proposal.Result.Sessions))
	for _, sess := range proposal.Result.Sessions {
		row := models.MonthlyScheduleSession{
			ID:            sess.ID,
			ScheduleID:    record.ID,
			Date:          sess.Date,
			Shift:         sess.Shift,
			Course:        sess.Course,
			Instructor:    sess.Instructor,
			Room:          sess.Room,
			PrepStartMin:  sess.PrepStartMin,
			ClassStartMin: sess.ClassStartMin,
			ClassEndMin:   sess.ClassEndMin,
			DurationHours: sess.DurationHours,
			AllDay:        sess.AllDay,
		}
		if sess.IsShadow() {
			shadowOf := sess.ShadowOf
			row.ShadowOf = &shadowOf
		}
		rows = append(rows, row)
	}
	if err = s.sessions.InsertBatch(ctx, tx, rows); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist schedule sessions")
		return "", err
	}

	if req.Publish {
		if err = s.schedules.UpdateStatus(ctx, tx, record.ID, models.MonthlyScheduleStatusPublished); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish schedule")
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule transaction")
		return "", err
	}

	s.store.Delete(req.ProposalID)
	s.logger.Info("schedule_saved",
		zap.String("schedule_id", record.ID),
		zap.Int("year", record.Year),
		zap.Int("month", record.Month),
		zap.Int("sessions", len(rows)),
	)
	return record.ID, nil
}

// List returns saved schedule versions, optionally filtered by month.
func (s *ScheduleGeneratorService) List(ctx context.Context, query dto.ScheduleListQuery) ([]models.MonthlyScheduleMeta, error) {
	list, err := s.schedules.List(ctx, query.Year, query.Month)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list monthly schedules")
	}
	return list, nil
}

// GetSessions returns session detail for a saved schedule.
func (s *ScheduleGeneratorService) GetSessions(ctx context.Context, scheduleID string) ([]models.MonthlyScheduleSession, error) {
	if scheduleID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule id is required")
	}
	if _, err := s.schedules.FindByID(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "monthly schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load monthly schedule")
	}
	rows, err := s.sessions.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule sessions")
	}
	return rows, nil
}

// Delete removes a saved schedule version and its sessions.
func (s *ScheduleGeneratorService) Delete(ctx context.Context, scheduleID string) error {
	if _, err := s.schedules.FindByID(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "monthly schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load monthly schedule")
	}
	if err := s.schedules.Delete(ctx, scheduleID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete monthly schedule")
	}
	return nil
}

// Catalog exposes the standing catalog for read-only endpoints.
func (s *ScheduleGeneratorService) Catalog(_ context.Context) *models.Catalog {
	return s.catalog
}

type scheduleProposal struct {
	ProposalID  string
	Result      *models.GenerationResult
	Constraints models.ConstraintSet
	Conflicts   []models.Conflict
	RequestedAt time.Time
}

// clone detaches the proposal from the stored copy so callers can edit
// it without racing other requests on the same proposal id.
func (p scheduleProposal) clone() scheduleProposal {
	out := p
	if p.Result != nil {
		result := *p.Result
		result.Sessions = append([]models.Session(nil), p.Result.Sessions...)
		result.Flags = append([]string(nil), p.Result.Flags...)
		result.MealBreaks = append([]models.MealBreak(nil), p.Result.MealBreaks...)
		out.Result = &result
	}
	out.Conflicts = append([]models.Conflict(nil), p.Conflicts...)
	return out
}

type proposalStore struct {
	mu        sync.RWMutex
	ttl       time.Duration
	proposals map[string]scheduleProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:       ttl,
		proposals: make(map[string]scheduleProposal),
	}
}

func (s *proposalStore) Save(proposal scheduleProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (scheduleProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.proposals[id]
	s.mu.RUnlock()
	if !ok {
		return scheduleProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return scheduleProposal{}, false
	}
	return proposal.clone(), true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.proposals, id)
}
