package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mfg-academy/training-scheduler-api/internal/models"
	appErrors "github.com/mfg-academy/training-scheduler-api/pkg/errors"
	"github.com/mfg-academy/training-scheduler-api/pkg/export"
	"github.com/mfg-academy/training-scheduler-api/pkg/storage"
)

// TimetableExportService renders schedule proposals as per-shift grids:
// one row per 30-minute slot, one column per day-instructor pair, with
// meetings, meals, prep, classes, and trailing buffer filled in.
type TimetableExportService struct {
	generator *ScheduleGeneratorService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	pdfTitle  string
	archive   *storage.ExportArchive
	logger    *zap.Logger
}

func NewTimetableExportService(generator *ScheduleGeneratorService, csv *export.CSVExporter, pdf *export.PDFExporter, pdfTitle string, archive *storage.ExportArchive, logger *zap.Logger) *TimetableExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if pdfTitle == "" {
		pdfTitle = "Monthly Training Schedule"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableExportService{
		generator: generator,
		csv:       csv,
		pdf:       pdf,
		pdfTitle:  pdfTitle,
		archive:   archive,
		logger:    logger,
	}
}

// ExportProposal renders one shift of a cached proposal. Format is csv or
// pdf; the returned name is a suggested filename.
func (s *TimetableExportService) ExportProposal(_ context.Context, proposalID, shiftKey, format string) (data []byte, name, contentType string, err error) {
	proposal, ok := s.generator.store.Get(proposalID)
	if !ok {
		return nil, "", "", appErrors.Clone(appErrors.ErrProposalExpired, "")
	}
	shift, ok := s.generator.catalog.Shift(shiftKey)
	if !ok {
		return nil, "", "", appErrors.Clone(appErrors.ErrUnknownShift, "")
	}
	cons, err2 := newConstraintIndex(proposal.Constraints)
	if err2 != nil {
		return nil, "", "", appErrors.Wrap(err2, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid constraints")
	}

	dataset := s.buildShiftGrid(proposal.Result, cons, shift)
	base := fmt.Sprintf("schedule_%04d-%02d_%s", proposal.Result.Year, proposal.Result.Month, strings.ToLower(shift.Key))
	title := fmt.Sprintf("%s %s %04d-%02d", s.pdfTitle, shift.Label, proposal.Result.Year, proposal.Result.Month)

	switch format {
	case "pdf":
		data, err = s.pdf.RenderLandscape(dataset, title)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		s.archiveCopy(base+".pdf", data)
		return data, base + ".pdf", "application/pdf", nil
	default:
		data, err = s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		s.archiveCopy(base+".csv", data)
		return data, base + ".csv", "text/csv", nil
	}
}

// archiveCopy keeps a copy of the rendered export on disk. Failures are
// logged and do not fail the download.
func (s *TimetableExportService) archiveCopy(name string, data []byte) {
	if s.archive == nil {
		return
	}
	if _, err := s.archive.Save(name, data); err != nil {
		s.logger.Warn("failed to archive export", zap.String("file", name), zap.Error(err))
	}
}

func (s *TimetableExportService) buildShiftGrid(result *models.GenerationResult, cons *constraintIndex, shift models.Shift) export.Dataset {
	catalog := s.generator.catalog
	dates := shiftDates(monthDates(result.Year, result.Month), shift)

	var instructors []string
	for _, inst := range catalog.Instructors {
		if inst.Shift == shift.Key {
			instructors = append(instructors, inst.Name)
		}
	}

	headers := []string{"Time"}
	type column struct {
		date       time.Time
		iso        string
		instructor string
	}
	var columns []column
	for _, d := range dates {
		for _, name := range instructors {
			headers = append(headers, d.Format("Mon 01/02")+" "+name)
			columns = append(columns, column{date: d, iso: isoDate(d), instructor: name})
		}
	}

	bySlot := make(map[slotKey][]models.Session)
	for _, sess := range result.Sessions {
		if sess.Shift != shift.Key {
			continue
		}
		key := slotKey{Instructor: sess.Instructor, Date: sess.Date}
		bySlot[key] = append(bySlot[key], sess)
	}

	shiftStart, shiftEnd := shift.Window()
	var rows []map[string]string
	for t := shiftStart; t < shiftEnd; t += 30 {
		row := map[string]string{"Time": models.ClockTime(t)}
		for ci, col := range columns {
			row[headers[ci+1]] = s.cellValue(result, cons, col.date, col.iso, col.instructor, bySlot[slotKey{Instructor: col.instructor, Date: col.iso}], t)
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

// cellValue resolves what occupies one 30-minute slot. Precedence:
// ad-hoc meeting, recurring Tuesday meeting, meal break, prep, class,
// buffer after the day's last block.
func (s *TimetableExportService) cellValue(result *models.GenerationResult, cons *constraintIndex, d time.Time, iso, instructor string, sessions []models.Session, t int) string {
	if label, ok := cons.meetingAt(instructor, iso, t); ok {
		return label
	}
	// Tuesday meetings display as the common 11:00-12:00 block even
	// though the all-staff one runs until 12:30.
	if kind := tuesdayMeeting(d); kind != meetingNone {
		if meetingStartMin <= t && t < copEndMin {
			if kind == meetingAllStaff {
				return "All Staff Meeting"
			}
			return "CoP Meeting"
		}
	}
	if mealStart, ok := result.MealBreakFor(instructor, iso); ok {
		if mealStart <= t && t < mealStart+models.MealBreakMins {
			return "Meal Break"
		}
	}
	lastEnd := 0
	for _, sess := range sessions {
		if sess.ClassEndMin > lastEnd {
			lastEnd = sess.ClassEndMin
		}
		if sess.PrepStartMin <= t && t < sess.ClassStartMin {
			return "PREP " + sess.Course
		}
		if sess.ClassStartMin <= t && t < sess.ClassEndMin {
			prefix := ""
			if sess.IsShadow() {
				prefix = "(Shadow) "
			}
			return prefix + sess.Course + " @ " + sess.Room
		}
	}
	if len(sessions) > 0 && t >= lastEnd {
		return "Buffer"
	}
	return ""
}
