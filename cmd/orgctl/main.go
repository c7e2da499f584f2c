// orgctl is the command-line companion for the organization dashboard API.
// It drives the same client library the dashboard frontends use, storing the
// session token in the user's config directory between invocations.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/thrivewell/wellness-platform/pkg/orgclient"
)

var cli struct {
	Version kong.VersionFlag
	API     string `help:"API base URL." env:"API_BASE_URL" default:"http://127.0.0.1:8000"`
	Token   string `help:"Session token file path." env:"ORGCTL_TOKEN_FILE" type:"path"`

	Login  LoginCmd  `cmd:"" help:"Log in and store a session token."`
	Logout LogoutCmd `cmd:"" help:"End the session and drop the stored token."`

	Employees struct {
		List   EmployeeListCmd   `cmd:"" help:"List the employee roster."`
		Add    EmployeeAddCmd    `cmd:"" help:"Add an employee to the roster."`
		Assign EmployeeAssignCmd `cmd:"" help:"Replace an employee's program assignments."`
	} `cmd:"" help:"Manage the employee roster."`

	Appointments struct {
		List   AppointmentListCmd   `cmd:"" help:"List appointments."`
		Show   AppointmentShowCmd   `cmd:"" help:"Show one appointment."`
		Book   AppointmentBookCmd   `cmd:"" help:"Book an appointment."`
		Status AppointmentStatusCmd `cmd:"" help:"Move an appointment to a new status."`
	} `cmd:"" help:"Manage appointments."`

	Providers ProvidersCmd `cmd:"" help:"List bookable providers."`
	Partners  PartnersCmd  `cmd:"" help:"List partner organizations."`
	Overview  OverviewCmd  `cmd:"" help:"Show the dashboard overview."`
	Stats     StatsCmd     `cmd:"" help:"Show appointment statistics."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("orgctl"),
		kong.Description("Organization wellness dashboard CLI"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.3.0"},
	)

	tokenPath := cli.Token
	if tokenPath == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		tokenPath = filepath.Join(configDir, "orgctl", "token")
	}

	appCtx := &Context{
		Client: orgclient.New(cli.API, orgclient.NewFileTokenStore(tokenPath)),
		Out:    os.Stdout,
	}

	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
