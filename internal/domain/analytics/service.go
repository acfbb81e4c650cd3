package analytics

import (
	"context"
	"fmt"

	"github.com/carelink/carelink/internal/platform/report"
	"github.com/carelink/carelink/internal/platform/scope"
)

var ErrForbidden = fmt.Errorf("forbidden")

// Reporter is the slice of the report builder the analytics service uses.
type Reporter interface {
	CountByField(ctx context.Context, table, field string, f scope.Filter) ([]report.ValueCount, error)
	MonthlyTrend(ctx context.Context, table, dateColumn string, f scope.Filter) ([]report.TrendPoint, error)
	TopN(ctx context.Context, spec report.TopNSpec, f scope.Filter) ([]report.RankedItem, error)
	Revenue(ctx context.Context, table, amountColumn, dateColumn string, f scope.Filter) (report.RevenueSummary, error)
	AgeDistribution(ctx context.Context, f scope.Filter) ([]report.ValueCount, error)
}

type SystemReport struct {
	UsersByRole         []report.ValueCount   `json:"users_by_role"`
	AppointmentsByState []report.ValueCount   `json:"appointments_by_status"`
	AppointmentTrend    []report.TrendPoint   `json:"appointment_trend"`
	TopHospitals        []report.RankedItem   `json:"top_hospitals"`
	MonthlyRevenue      report.RevenueSummary `json:"monthly_revenue"`
	AgeDistribution     []report.ValueCount   `json:"age_distribution"`
}

type HospitalReport struct {
	AppointmentsByState []report.ValueCount   `json:"appointments_by_status"`
	AppointmentTrend    []report.TrendPoint   `json:"appointment_trend"`
	TopDoctors          []report.RankedItem   `json:"top_doctors"`
	MonthlyRevenue      report.RevenueSummary `json:"monthly_revenue"`
	AgeDistribution     []report.ValueCount   `json:"age_distribution"`
}

type DoctorReport struct {
	AppointmentsByState []report.ValueCount `json:"appointments_by_status"`
	AppointmentTrend    []report.TrendPoint `json:"appointment_trend"`
	AgeDistribution     []report.ValueCount `json:"age_distribution"`
}

type PatientReport struct {
	AppointmentsByState []report.ValueCount `json:"appointments_by_status"`
	AppointmentTrend    []report.TrendPoint `json:"appointment_trend"`
	OrdersByState       []report.ValueCount `json:"orders_by_status"`
}

type Service struct {
	reports  Reporter
	resolver *scope.Resolver
}

func NewService(reports Reporter, resolver *scope.Resolver) *Service {
	return &Service{reports: reports, resolver: resolver}
}

// System is the platform-wide admin dashboard.
func (s *Service) System(ctx context.Context, caller scope.Caller) (*SystemReport, error) {
	if caller.Role != scope.RoleAdmin {
		return nil, ErrForbidden
	}
	all := scope.Filter{}

	var (
		rep SystemReport
		err error
	)
	if rep.UsersByRole, err = s.reports.CountByField(ctx, "app_user", "role", all); err != nil {
		return nil, err
	}
	if rep.AppointmentsByState, err = s.reports.CountByField(ctx, "appointment", "status", all); err != nil {
		return nil, err
	}
	if rep.AppointmentTrend, err = s.reports.MonthlyTrend(ctx, "appointment", "created_at", all); err != nil {
		return nil, err
	}
	if rep.TopHospitals, err = s.reports.TopN(ctx, report.TopNSpec{
		Table:      "appointment",
		RefTable:   "hospital",
		ForeignKey: "hospital_id",
		NameColumn: "name",
		Metric:     "COUNT(*)",
	}, all); err != nil {
		return nil, err
	}
	if rep.MonthlyRevenue, err = s.reports.Revenue(ctx, "appointment", "fee", "scheduled_at", all); err != nil {
		return nil, err
	}
	if rep.AgeDistribution, err = s.reports.AgeDistribution(ctx, all); err != nil {
		return nil, err
	}
	return &rep, nil
}

// Hospital reports on the caller's own hospital. Admins are admitted with
// their unrestricted scope, mirroring the route gate.
func (s *Service) Hospital(ctx context.Context, caller scope.Caller) (*HospitalReport, error) {
	if caller.Role != scope.RoleHospital && caller.Role != scope.RoleAdmin {
		return nil, ErrForbidden
	}
	appts, err := s.resolver.Resolve(ctx, caller, scope.Appointments)
	if err != nil {
		return nil, err
	}
	patients, err := s.resolver.Resolve(ctx, caller, scope.Patients)
	if err != nil {
		return nil, err
	}
	if !appts.Allowed || !patients.Allowed {
		return nil, ErrForbidden
	}

	var rep HospitalReport
	if rep.AppointmentsByState, err = s.reports.CountByField(ctx, "appointment", "status", appts.Filter); err != nil {
		return nil, err
	}
	if rep.AppointmentTrend, err = s.reports.MonthlyTrend(ctx, "appointment", "created_at", appts.Filter); err != nil {
		return nil, err
	}
	if rep.TopDoctors, err = s.reports.TopN(ctx, report.TopNSpec{
		Table:      "appointment",
		RefTable:   "doctor_directory",
		ForeignKey: "doctor_id",
		NameColumn: "name",
		Metric:     "COUNT(*)",
	}, appts.Filter); err != nil {
		return nil, err
	}
	if rep.MonthlyRevenue, err = s.reports.Revenue(ctx, "appointment", "fee", "scheduled_at", appts.Filter); err != nil {
		return nil, err
	}
	if rep.AgeDistribution, err = s.reports.AgeDistribution(ctx, patients.Filter); err != nil {
		return nil, err
	}
	return &rep, nil
}

// Doctor reports on the caller's own appointments and treated patients.
// Admins are admitted with their unrestricted scope.
func (s *Service) Doctor(ctx context.Context, caller scope.Caller) (*DoctorReport, error) {
	if caller.Role != scope.RoleDoctor && caller.Role != scope.RoleAdmin {
		return nil, ErrForbidden
	}
	appts, err := s.resolver.Resolve(ctx, caller, scope.Appointments)
	if err != nil {
		return nil, err
	}
	patients, err := s.resolver.Resolve(ctx, caller, scope.Patients)
	if err != nil {
		return nil, err
	}
	if !appts.Allowed || !patients.Allowed {
		return nil, ErrForbidden
	}

	var rep DoctorReport
	if rep.AppointmentsByState, err = s.reports.CountByField(ctx, "appointment", "status", appts.Filter); err != nil {
		return nil, err
	}
	if rep.AppointmentTrend, err = s.reports.MonthlyTrend(ctx, "appointment", "created_at", appts.Filter); err != nil {
		return nil, err
	}
	if rep.AgeDistribution, err = s.reports.AgeDistribution(ctx, patients.Filter); err != nil {
		return nil, err
	}
	return &rep, nil
}

// Patient reports on the caller's own care activity. Admins are admitted
// with their unrestricted scope.
func (s *Service) Patient(ctx context.Context, caller scope.Caller) (*PatientReport, error) {
	if caller.Role != scope.RolePatient && caller.Role != scope.RoleAdmin {
		return nil, ErrForbidden
	}
	appts, err := s.resolver.Resolve(ctx, caller, scope.Appointments)
	if err != nil {
		return nil, err
	}
	orders, err := s.resolver.Resolve(ctx, caller, scope.Orders)
	if err != nil {
		return nil, err
	}
	if !appts.Allowed || !orders.Allowed {
		return nil, ErrForbidden
	}

	var rep PatientReport
	if rep.AppointmentsByState, err = s.reports.CountByField(ctx, "appointment", "status", appts.Filter); err != nil {
		return nil, err
	}
	if rep.AppointmentTrend, err = s.reports.MonthlyTrend(ctx, "appointment", "created_at", appts.Filter); err != nil {
		return nil, err
	}
	if rep.OrdersByState, err = s.reports.CountByField(ctx, "pharmacy_order", "status", orders.Filter); err != nil {
		return nil, err
	}
	return &rep, nil
}
