package appointment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/notification"
	"github.com/carelink/carelink/internal/platform/scope"
)

var ErrForbidden = fmt.Errorf("forbidden")

// Snapshotter captures the patient's demographics at booking time. The
// composition root implements it over the patient and identity services.
type Snapshotter interface {
	Snapshot(ctx context.Context, patientID uuid.UUID) (*PatientDetails, error)
}

// VisitRecorder marks a patient as seen at a hospital; booking an
// appointment establishes the hospital-visibility link.
type VisitRecorder interface {
	RecordVisit(ctx context.Context, patientID, hospitalID uuid.UUID) error
}

type Service struct {
	repo     Repository
	resolver *scope.Resolver
	snaps    Snapshotter
	visits   VisitRecorder
	notifier *notification.Dispatcher
}

func NewService(repo Repository, resolver *scope.Resolver, snaps Snapshotter, visits VisitRecorder, notifier *notification.Dispatcher) *Service {
	return &Service{repo: repo, resolver: resolver, snaps: snaps, visits: visits, notifier: notifier}
}

// Create books an appointment. The patient snapshot is captured here,
// once; later profile edits never propagate into existing appointments.
func (s *Service) Create(ctx context.Context, caller scope.Caller, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if a.HospitalID == uuid.Nil {
		return fmt.Errorf("hospital_id is required")
	}
	if a.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled_at is required")
	}

	// A patient may only book for themselves; staff roles book within
	// their scope via CanAccessPatient.
	ok, err := s.resolver.CanAccessPatient(ctx, caller, a.PatientID)
	if err != nil {
		return err
	}
	if !ok && caller.Role != scope.RolePatient {
		return ErrForbidden
	}
	if caller.Role == scope.RolePatient && !ok {
		// Booking is how a patient first becomes visible to a hospital, so
		// self-booking is allowed even before any visit link exists — but
		// only for the caller's own profile.
		pid, found, derr := s.profileOf(ctx, caller)
		if derr != nil {
			return derr
		}
		if !found || pid != a.PatientID {
			return ErrForbidden
		}
	}

	if a.Status == "" {
		a.Status = StatusPending
	}
	if !ValidStatus(a.Status) {
		return fmt.Errorf("invalid status %q", a.Status)
	}

	snapshot, err := s.snaps.Snapshot(ctx, a.PatientID)
	if err != nil {
		return fmt.Errorf("capture patient snapshot: %w", err)
	}
	a.PatientDetails = snapshot

	if err := s.repo.Create(ctx, a); err != nil {
		return err
	}

	if s.visits != nil {
		if err := s.visits.RecordVisit(ctx, a.PatientID, a.HospitalID); err != nil {
			return fmt.Errorf("record hospital visit: %w", err)
		}
	}

	if s.notifier != nil && snapshot != nil && snapshot.Email != "" {
		s.notifier.Notify("appointment-booked", snapshot.Email, map[string]string{
			"patient_name": snapshot.FullName,
			"date":         a.ScheduledAt.Format("2006-01-02"),
			"time":         a.ScheduledAt.Format("15:04"),
		})
	}
	return nil
}

func (s *Service) profileOf(ctx context.Context, caller scope.Caller) (uuid.UUID, bool, error) {
	d, err := s.resolver.Resolve(ctx, caller, scope.Appointments)
	if err != nil {
		return uuid.Nil, false, err
	}
	if !d.Allowed {
		return uuid.Nil, false, nil
	}
	for _, c := range d.Filter.Conds {
		if c.Column == "patient_id" && c.Op == scope.OpEq {
			return c.Value.(uuid.UUID), true, nil
		}
	}
	return uuid.Nil, false, nil
}

// Get fetches one appointment with the caller's filter applied in the
// query, so an out-of-scope row is indistinguishable from a missing one.
func (s *Service) Get(ctx context.Context, caller scope.Caller, id uuid.UUID) (*Appointment, error) {
	d, err := s.resolver.Resolve(ctx, caller, scope.Appointments)
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		return nil, ErrForbidden
	}
	return s.repo.GetByID(ctx, d.Filter, id)
}

func (s *Service) UpdateStatus(ctx context.Context, caller scope.Caller, id uuid.UUID, status string) error {
	if !ValidStatus(status) {
		return fmt.Errorf("invalid status %q", status)
	}
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *Service) List(ctx context.Context, caller scope.Caller, status string, limit, offset int) ([]*Appointment, int, error) {
	if status != "" && !ValidStatus(status) {
		return nil, 0, fmt.Errorf("invalid status %q", status)
	}
	d, err := s.resolver.Resolve(ctx, caller, scope.Appointments)
	if err != nil {
		return nil, 0, err
	}
	if !d.Allowed {
		return nil, 0, ErrForbidden
	}
	return s.repo.List(ctx, d.Filter, status, limit, offset)
}
