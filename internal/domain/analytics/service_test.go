package analytics

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/report"
	"github.com/carelink/carelink/internal/platform/scope"
)

// mockReporter records the filter each builder call received so tests can
// assert that a report never escapes the caller's scope.
type mockReporter struct {
	countFilters map[string]scope.Filter
	trendFilters map[string]scope.Filter
	topNFilter   scope.Filter
	ageFilter    scope.Filter
}

func newMockReporter() *mockReporter {
	return &mockReporter{
		countFilters: make(map[string]scope.Filter),
		trendFilters: make(map[string]scope.Filter),
	}
}

func (m *mockReporter) CountByField(_ context.Context, table, _ string, f scope.Filter) ([]report.ValueCount, error) {
	m.countFilters[table] = f
	return []report.ValueCount{{Value: "pending", Count: 2}}, nil
}

func (m *mockReporter) MonthlyTrend(_ context.Context, table, _ string, f scope.Filter) ([]report.TrendPoint, error) {
	m.trendFilters[table] = f
	return []report.TrendPoint{{Year: 2026, Month: 8, Count: 4}}, nil
}

func (m *mockReporter) TopN(_ context.Context, _ report.TopNSpec, f scope.Filter) ([]report.RankedItem, error) {
	m.topNFilter = f
	return []report.RankedItem{{Name: "King Faisal", Total: 12}}, nil
}

func (m *mockReporter) Revenue(_ context.Context, _, _, _ string, _ scope.Filter) (report.RevenueSummary, error) {
	return report.RevenueSummary{TotalRevenue: 500, AvgRevenue: 50}, nil
}

func (m *mockReporter) AgeDistribution(_ context.Context, f scope.Filter) ([]report.ValueCount, error) {
	m.ageFilter = f
	return []report.ValueCount{{Value: "19-30", Count: 3}}, nil
}

func hasEq(f scope.Filter, column string, want uuid.UUID) bool {
	for _, c := range f.Conds {
		if c.Column == column && c.Op == scope.OpEq {
			if got, ok := c.Value.(uuid.UUID); ok && got == want {
				return true
			}
		}
	}
	return false
}

func TestSystemReportAdminOnly(t *testing.T) {
	reports := newMockReporter()
	svc := NewService(reports, scope.NewResolver(scope.NewMemoryDirectory()))
	ctx := context.Background()

	for _, role := range []scope.Role{scope.RoleHospital, scope.RoleDoctor, scope.RolePatient} {
		if _, err := svc.System(ctx, scope.Caller{UserID: uuid.New(), Role: role}); err != ErrForbidden {
			t.Errorf("role %s: err = %v, want ErrForbidden", role, err)
		}
	}

	rep, err := svc.System(ctx, scope.Caller{UserID: uuid.New(), Role: scope.RoleAdmin})
	if err != nil {
		t.Fatalf("System: %v", err)
	}
	if len(rep.UsersByRole) == 0 || len(rep.TopHospitals) == 0 {
		t.Errorf("report incomplete: %+v", rep)
	}
	if rep.MonthlyRevenue.TotalRevenue != 500 {
		t.Errorf("revenue = %+v", rep.MonthlyRevenue)
	}
	if len(reports.countFilters["app_user"].Conds) != 0 {
		t.Error("admin report must use an unconstrained filter")
	}
}

func TestDoctorReportScopedToOwnAppointments(t *testing.T) {
	reports := newMockReporter()
	dir := scope.NewMemoryDirectory()
	svc := NewService(reports, scope.NewResolver(dir))
	ctx := context.Background()

	doctorUser, doctorID := uuid.New(), uuid.New()
	dir.AddDoctor(doctorUser, doctorID)
	me := scope.Caller{UserID: doctorUser, Role: scope.RoleDoctor}

	if _, err := svc.Doctor(ctx, me); err != nil {
		t.Fatalf("Doctor: %v", err)
	}
	if !hasEq(reports.countFilters["appointment"], "doctor_id", doctorID) {
		t.Error("appointment counts not constrained to the caller's doctor profile")
	}
	if !hasEq(reports.trendFilters["appointment"], "doctor_id", doctorID) {
		t.Error("trend not constrained to the caller's doctor profile")
	}
}

func TestDoctorReportWithoutProfileForbidden(t *testing.T) {
	svc := NewService(newMockReporter(), scope.NewResolver(scope.NewMemoryDirectory()))
	me := scope.Caller{UserID: uuid.New(), Role: scope.RoleDoctor}
	if _, err := svc.Doctor(context.Background(), me); err != ErrForbidden {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestHospitalReportScopedToOwnHospital(t *testing.T) {
	reports := newMockReporter()
	dir := scope.NewMemoryDirectory()
	svc := NewService(reports, scope.NewResolver(dir))

	adminUser, hospitalID := uuid.New(), uuid.New()
	dir.AddHospitalAdmin(adminUser, hospitalID)
	me := scope.Caller{UserID: adminUser, Role: scope.RoleHospital}

	if _, err := svc.Hospital(context.Background(), me); err != nil {
		t.Fatalf("Hospital: %v", err)
	}
	if !hasEq(reports.countFilters["appointment"], "hospital_id", hospitalID) {
		t.Error("appointment counts not constrained to the caller's hospital")
	}
	if !hasEq(reports.topNFilter, "hospital_id", hospitalID) {
		t.Error("ranking not constrained to the caller's hospital")
	}
}

func TestRoleReportsAdmitAdminUnscoped(t *testing.T) {
	// The route gates wave admins through, so the services must serve
	// them rather than answer with a refusal after the gate.
	reports := newMockReporter()
	svc := NewService(reports, scope.NewResolver(scope.NewMemoryDirectory()))
	ctx := context.Background()
	admin := scope.Caller{UserID: uuid.New(), Role: scope.RoleAdmin}

	if _, err := svc.Hospital(ctx, admin); err != nil {
		t.Fatalf("Hospital: %v", err)
	}
	if len(reports.countFilters["appointment"].Conds) != 0 {
		t.Errorf("admin hospital report filter = %+v, want unrestricted",
			reports.countFilters["appointment"].Conds)
	}
	if _, err := svc.Doctor(ctx, admin); err != nil {
		t.Fatalf("Doctor: %v", err)
	}
	if _, err := svc.Patient(ctx, admin); err != nil {
		t.Fatalf("Patient: %v", err)
	}
}

func TestPatientReportScopedToSelf(t *testing.T) {
	reports := newMockReporter()
	dir := scope.NewMemoryDirectory()
	svc := NewService(reports, scope.NewResolver(dir))

	patientUser, patientID := uuid.New(), uuid.New()
	dir.AddPatient(patientUser, patientID)
	me := scope.Caller{UserID: patientUser, Role: scope.RolePatient}

	rep, err := svc.Patient(context.Background(), me)
	if err != nil {
		t.Fatalf("Patient: %v", err)
	}
	if !hasEq(reports.countFilters["appointment"], "patient_id", patientID) {
		t.Error("appointment counts not constrained to the caller")
	}
	if !hasEq(reports.countFilters["pharmacy_order"], "patient_id", patientID) {
		t.Error("order counts not constrained to the caller")
	}
	if len(rep.AppointmentTrend) == 0 {
		t.Error("trend missing from report")
	}
}
