package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/thrivewell/wellness-platform/pkg/orgclient"
)

// Context carries the shared client into every command's Run method.
type Context struct {
	Client *orgclient.Client
	Out    io.Writer
}

type LoginCmd struct {
	Email    string `arg:"" help:"Account email."`
	Password string `help:"Account password. Prompted when omitted."`
}

func (c *LoginCmd) Run(ctx *Context) error {
	password := c.Password
	if password == "" {
		fmt.Fprint(ctx.Out, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimSpace(line)
	}

	session, err := ctx.Client.Login(context.Background(), c.Email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Logged in as %s (%s)\n", session.User.Email, session.User.Role)
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *Context) error {
	ctx.Client.Logout(context.Background())
	fmt.Fprintln(ctx.Out, "Logged out.")
	return nil
}

type EmployeeListCmd struct {
	Search     string `help:"Free-text name or email search."`
	Department string `help:"Filter by department."`
	Risk       string `help:"Filter by risk category (low, medium, high, unknown)."`
	Page       int    `help:"Page number." default:"1"`
	PerPage    int    `help:"Results per page." default:"25"`
}

func (c *EmployeeListCmd) Run(ctx *Context) error {
	items, page, err := ctx.Client.ListEmployees(context.Background(), orgclient.EmployeeListParams{
		Search:       c.Search,
		Department:   c.Department,
		RiskCategory: c.Risk,
		Page:         c.Page,
		PerPage:      c.PerPage,
	})
	if err != nil {
		return err
	}

	for _, emp := range items {
		fmt.Fprintf(ctx.Out, "%6d  %-24s %-30s %-12s %s\n",
			emp.ID,
			emp.Lastname+", "+emp.Firstname,
			emp.Email,
			emp.EnrollmentStatus,
			emp.RiskCategory,
		)
	}
	fmt.Fprintf(ctx.Out, "\nPage %d of %d (%d total)\n", page.Page, page.TotalPages, page.Total)
	return nil
}

type EmployeeAddCmd struct {
	Firstname  string `arg:"" help:"First name."`
	Lastname   string `arg:"" help:"Last name."`
	Email      string `arg:"" help:"Email address."`
	Phone      string `help:"Phone number."`
	Department string `help:"Department."`
	Position   string `help:"Job title."`
}

func (c *EmployeeAddCmd) Run(ctx *Context) error {
	emp, err := ctx.Client.CreateEmployee(context.Background(), orgclient.CreateEmployeeRequest{
		Firstname:  c.Firstname,
		Lastname:   c.Lastname,
		Email:      c.Email,
		Phone:      c.Phone,
		Department: c.Department,
		Position:   c.Position,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Added employee %d: %s %s\n", emp.ID, emp.Firstname, emp.Lastname)
	return nil
}

type EmployeeAssignCmd struct {
	ID       int64    `arg:"" help:"Employee ID."`
	Programs []string `arg:"" help:"Program names to assign."`
}

func (c *EmployeeAssignCmd) Run(ctx *Context) error {
	emp, err := ctx.Client.AssignPrograms(context.Background(), c.ID, c.Programs)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Employee %d programs: %s\n", emp.ID, strings.Join(emp.ProgramAssignments, ", "))
	return nil
}

type AppointmentListCmd struct {
	Status   string `help:"Filter by status (scheduled, confirmed, completed, cancelled, no_show)."`
	Filter   string `help:"Relative window: upcoming, past or today."`
	Mine     bool   `help:"Only appointments where you are the provider."`
	Employee bool   `help:"Your own appointments (employee session)."`
	Page     int    `help:"Page number." default:"1"`
	PerPage  int    `help:"Results per page." default:"25"`
}

func (c *AppointmentListCmd) Run(ctx *Context) error {
	params := orgclient.AppointmentListParams{
		Status:  orgclient.Status(c.Status),
		Filter:  c.Filter,
		Page:    c.Page,
		PerPage: c.PerPage,
	}

	var (
		items []orgclient.Appointment
		page  orgclient.Page
		err   error
	)
	switch {
	case c.Employee:
		items, page, err = ctx.Client.EmployeeAppointments(context.Background(), params)
	case c.Mine:
		items, page, err = ctx.Client.MyAppointments(context.Background(), params)
	default:
		items, page, err = ctx.Client.ListAppointments(context.Background(), params)
	}
	if err != nil {
		return err
	}

	for _, appt := range items {
		provider := ""
		if appt.ProviderDetails != nil {
			provider = appt.ProviderDetails.Name
		}
		fmt.Fprintf(ctx.Out, "%6d  %s %s  %-14s %-10s %s\n",
			appt.ID,
			appt.AppointmentDate,
			appt.AppointmentTime,
			appt.AppointmentType,
			appt.Status,
			provider,
		)
	}
	fmt.Fprintf(ctx.Out, "\nPage %d of %d (%d total)\n", page.Page, page.TotalPages, page.Total)
	return nil
}

type AppointmentShowCmd struct {
	ID int64 `arg:"" help:"Appointment ID."`
}

func (c *AppointmentShowCmd) Run(ctx *Context) error {
	appt, err := ctx.Client.GetAppointment(context.Background(), c.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "Appointment %d\n", appt.ID)
	fmt.Fprintf(ctx.Out, "  When:     %s %s (%d min)\n", appt.AppointmentDate, appt.AppointmentTime, appt.DurationMinutes)
	fmt.Fprintf(ctx.Out, "  Type:     %s\n", appt.AppointmentType)
	fmt.Fprintf(ctx.Out, "  Status:   %s\n", appt.Status)
	if appt.Employee != nil {
		fmt.Fprintf(ctx.Out, "  Employee: %s %s <%s>\n", appt.Employee.Firstname, appt.Employee.Lastname, appt.Employee.Email)
	}
	if appt.ProviderDetails != nil {
		fmt.Fprintf(ctx.Out, "  Provider: %s <%s>\n", appt.ProviderDetails.Name, appt.ProviderDetails.Email)
	}
	if appt.Notes != "" {
		fmt.Fprintf(ctx.Out, "  Notes:    %s\n", appt.Notes)
	}
	if appt.CancellationReason != "" {
		fmt.Fprintf(ctx.Out, "  Reason:   %s\n", appt.CancellationReason)
	}
	if next := orgclient.AllowedTransitions(appt.Status); len(next) > 0 {
		names := make([]string, len(next))
		for i, s := range next {
			names[i] = string(s)
		}
		fmt.Fprintf(ctx.Out, "  Next:     %s\n", strings.Join(names, ", "))
	}
	return nil
}

type AppointmentBookCmd struct {
	Provider int64  `arg:"" help:"Provider ID."`
	Date     string `arg:"" help:"Date (YYYY-MM-DD)."`
	Time     string `arg:"" help:"Time (HH:MM)."`
	Type     string `help:"Appointment type." default:"general"`
	Duration int    `help:"Duration in minutes." default:"30"`
	Notes    string `help:"Free-text notes."`
	Partner  bool   `help:"Book with a partner-organization admin."`
}

func (c *AppointmentBookCmd) Run(ctx *Context) error {
	providerType := orgclient.ProviderTypeUser
	offered, err := ctx.Client.AvailableProviders(context.Background())
	if c.Partner {
		providerType = orgclient.ProviderTypeOrgAdmin
		offered, err = ctx.Client.AvailablePartners(context.Background())
	}
	if err != nil {
		return err
	}

	appt, err := ctx.Client.BookAppointment(context.Background(), orgclient.BookingRequest{
		ProviderID:      c.Provider,
		ProviderType:    providerType,
		AppointmentType: orgclient.AppointmentType(c.Type),
		AppointmentDate: c.Date,
		AppointmentTime: c.Time,
		DurationMinutes: c.Duration,
		Notes:           c.Notes,
	}, offered)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Booked appointment %d for %s %s\n", appt.ID, appt.AppointmentDate, appt.AppointmentTime)
	return nil
}

type AppointmentStatusCmd struct {
	ID     int64  `arg:"" help:"Appointment ID."`
	Status string `arg:"" help:"New status (confirmed, completed, cancelled)."`
	Reason string `help:"Cancellation reason. Required when cancelling."`
	Notes  string `help:"Free-text notes."`
}

func (c *AppointmentStatusCmd) Run(ctx *Context) error {
	appt, err := ctx.Client.GetAppointment(context.Background(), c.ID)
	if err != nil {
		return err
	}

	updated, err := ctx.Client.UpdateAppointmentStatus(context.Background(), c.ID, appt.Status, orgclient.StatusUpdate{
		Status:             orgclient.Status(c.Status),
		Notes:              c.Notes,
		CancellationReason: c.Reason,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Appointment %d is now %s\n", updated.ID, updated.Status)
	return nil
}

type ProvidersCmd struct{}

func (c *ProvidersCmd) Run(ctx *Context) error {
	providers, err := ctx.Client.AvailableProviders(context.Background())
	if err != nil {
		return err
	}
	for _, p := range providers {
		fmt.Fprintf(ctx.Out, "%6d  %-30s %-30s %s\n", p.ID, p.Name, p.Email, p.Type)
	}
	return nil
}

type PartnersCmd struct{}

func (c *PartnersCmd) Run(ctx *Context) error {
	partners, err := ctx.Client.AvailablePartners(context.Background())
	if err != nil {
		return err
	}
	for _, p := range partners {
		fmt.Fprintf(ctx.Out, "%6d  %-30s %s\n", p.ID, p.Name, p.Email)
	}
	return nil
}

type OverviewCmd struct{}

func (c *OverviewCmd) Run(ctx *Context) error {
	overview, err := ctx.Client.DashboardOverview(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "Employees: %d total, %d active\n", overview.TotalEmployees, overview.ActiveEmployees)
	if stats := overview.Appointments; stats != nil {
		fmt.Fprintf(ctx.Out, "Appointments: %d total, %d upcoming, %.0f%% completed\n",
			stats.Total, stats.Upcoming, stats.CompletionRate)
	}
	for _, appt := range overview.UpcomingAppointments {
		fmt.Fprintf(ctx.Out, "  %s %s  %-14s %s\n",
			appt.AppointmentDate, appt.AppointmentTime, appt.AppointmentType, appt.Status)
	}
	return nil
}

type StatsCmd struct {
	From string `help:"Range start (YYYY-MM-DD)."`
	To   string `help:"Range end (YYYY-MM-DD)."`
}

func (c *StatsCmd) Run(ctx *Context) error {
	stats := ctx.Client.Statistics(context.Background(), c.From, c.To)
	if stats == nil {
		fmt.Fprintln(ctx.Out, "Statistics are unavailable right now.")
		return nil
	}

	fmt.Fprintf(ctx.Out, "Total:      %d\n", stats.Total)
	fmt.Fprintf(ctx.Out, "Scheduled:  %d\n", stats.Scheduled)
	fmt.Fprintf(ctx.Out, "Confirmed:  %d\n", stats.Confirmed)
	fmt.Fprintf(ctx.Out, "Completed:  %d\n", stats.Completed)
	fmt.Fprintf(ctx.Out, "Cancelled:  %d\n", stats.Cancelled)
	fmt.Fprintf(ctx.Out, "No-shows:   %d\n", stats.NoShow)
	fmt.Fprintf(ctx.Out, "Upcoming:   %d\n", stats.Upcoming)
	fmt.Fprintf(ctx.Out, "Completion: %.0f%%\n", stats.CompletionRate)
	return nil
}
