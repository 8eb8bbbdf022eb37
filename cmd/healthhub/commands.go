package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jwalitptl/healthhub-client/internal/app"
	"github.com/jwalitptl/healthhub-client/internal/model"
	"github.com/jwalitptl/healthhub-client/internal/service/emergency"
	"github.com/jwalitptl/healthhub-client/internal/service/scan"
	"github.com/jwalitptl/healthhub-client/internal/session"
	"github.com/jwalitptl/healthhub-client/pkg/errors"
	"github.com/jwalitptl/healthhub-client/pkg/validator"
)

var errUsage = stderrors.New("usage")

var errSignedOut = errors.Validation("not signed in, run `healthhub login` first", nil)

type cli struct {
	client    app.Client
	out       io.Writer
	validate  validator.Validator
	now       func() time.Time
	scanDelay time.Duration
}

type command func(ctx context.Context, args []string) error

func (c *cli) commands() map[string]command {
	return map[string]command{
		"login":           c.login,
		"register":        c.register,
		"logout":          c.logout,
		"whoami":          c.whoami,
		"refresh-profile": c.signedIn(c.refreshProfile),
		"medicines":       c.signedIn(c.medicines),
		"family":          c.signedIn(c.family),
		"analytics":       c.signedIn(c.analytics),
		"records":         c.signedIn(c.records),
		"emergency":       c.signedIn(c.emergency),
		"scan":            c.signedIn(c.scan),
		"session":         c.session,
	}
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := c.commands()[args[0]]
	if !ok {
		return errUsage
	}
	return cmd(ctx, args[1:])
}

func (c *cli) signedIn(next command) command {
	return func(ctx context.Context, args []string) error {
		if !c.client.Session.IsAuthenticated() {
			return errSignedOut
		}
		return next(ctx, args)
	}
}

func (c *cli) printf(format string, a ...interface{}) {
	fmt.Fprintf(c.out, format, a...)
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errors.Validation(err.Error(), err)
	}
	return nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := newFlags("login")
	var form model.LoginForm
	fs.StringVar(&form.Email, "email", "", "")
	fs.StringVar(&form.Password, "password", "", "")
	if err := parse(fs, args); err != nil {
		return err
	}
	form.Email = strings.TrimSpace(form.Email)
	if err := c.validate.Validate(form); err != nil {
		return err
	}

	user, err := c.client.Session.Login(ctx, form.Email, form.Password)
	if err != nil {
		return err
	}
	c.printf("Signed in as %s <%s>\n", user.FullName, user.Email)
	return nil
}

func (c *cli) register(ctx context.Context, args []string) error {
	fs := newFlags("register")
	var form model.RegisterForm
	fs.StringVar(&form.FullName, "name", "", "")
	fs.StringVar(&form.Email, "email", "", "")
	fs.StringVar(&form.Password, "password", "", "")
	fs.StringVar(&form.ConfirmPassword, "confirm", "", "")
	fs.StringVar(&form.Phone, "phone", "", "")
	fs.StringVar(&form.BloodType, "blood-type", "", "")
	if err := parse(fs, args); err != nil {
		return err
	}
	form.FullName = strings.TrimSpace(form.FullName)
	form.Email = strings.TrimSpace(form.Email)
	if err := c.validate.Validate(form); err != nil {
		return err
	}

	user, err := c.client.Session.Register(ctx, form.Request())
	if err != nil {
		return err
	}
	c.printf("Welcome, %s\n", user.FullName)
	return nil
}

func (c *cli) logout(ctx context.Context, _ []string) error {
	c.client.Session.Logout(ctx)
	c.printf("Signed out\n")
	return nil
}

func (c *cli) whoami(_ context.Context, _ []string) error {
	state := c.client.Session.Current()
	if !state.Authenticated() {
		c.printf("Not signed in\n")
		return nil
	}
	c.printUser(state.User)

	if claims, err := session.ParseClaims(state.Token); err == nil && !claims.Expiry().IsZero() {
		c.printf("Token expires: %s\n", claims.Expiry().Local().Format(time.RFC1123))
	}
	return nil
}

func (c *cli) refreshProfile(ctx context.Context, _ []string) error {
	user, err := c.client.Session.RefreshProfile(ctx)
	if err != nil {
		return err
	}
	c.printUser(user)
	return nil
}

func (c *cli) printUser(u *model.User) {
	c.printf("%s <%s>\n", u.FullName, u.Email)
	if u.Phone != "" {
		c.printf("Phone: %s\n", u.Phone)
	}
	if u.BloodType != nil {
		c.printf("Blood type: %s\n", *u.BloodType)
	}
}

func (c *cli) family(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "list":
		members, err := c.client.Family.FetchAll(ctx)
		if err != nil {
			return err
		}
		c.printFamily(members)
		return nil

	case "invite":
		if len(args) != 2 {
			return errUsage
		}
		form := model.InviteForm{Email: strings.TrimSpace(args[1])}
		if err := c.validate.Validate(form); err != nil {
			return err
		}
		msg, err := c.client.Family.Invite(ctx, form.Email)
		if err != nil {
			return err
		}
		c.printf("%s\n", msg)
		c.printFamily(c.client.Family.Members())
		return nil
	}
	return errUsage
}

func (c *cli) analytics(ctx context.Context, _ []string) error {
	err := c.client.Analytics.Refresh(ctx)

	if stats := c.client.Analytics.Adherence(); stats != nil {
		c.printf("Adherence (last %d days): %.1f%% (%s)\n", stats.PeriodDays, stats.AdherenceRate, stats.Level())
		c.printf("Doses: %d taken, %d missed, %d total\n", stats.TakenDoses, stats.MissedDoses, stats.TotalDoses)
	}
	if stats := c.client.Analytics.UpcomingExpiries(); len(stats) > 0 {
		c.printf("\nExpiring soon:\n")
		c.printExpiries(stats)
	} else if err == nil {
		c.printf("\nNo medicines expiring in the next 30 days\n")
	}
	return err
}

func (c *cli) records(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "list":
		list, err := c.client.Records.FetchAll(ctx)
		if err != nil {
			return err
		}
		c.printRecords(list)
		return nil

	case "add":
		fs := newFlags("records add")
		var form model.HealthRecordForm
		fs.StringVar(&form.MedicineID, "medicine", "", "")
		fs.StringVar(&form.Status, "status", string(model.DoseTaken), "")
		fs.StringVar(&form.Notes, "notes", "", "")
		if err := parse(fs, args[1:]); err != nil {
			return err
		}
		if err := c.validate.Validate(form); err != nil {
			return err
		}
		r, err := c.client.Records.Create(ctx, form.Input())
		if err != nil {
			return err
		}
		c.printf("Logged %s dose at %s\n", r.Status, r.TakenAt.Local().Format(time.Kitchen))
		return nil
	}
	return errUsage
}

func (c *cli) emergency(ctx context.Context, _ []string) error {
	user, err := c.client.Session.RefreshProfile(ctx)
	if err != nil {
		c.client.Logger.Warn("showing cached profile", "error", err.Error())
		user = c.client.Session.Current().User
	}
	meds, err := c.client.Medicines.FetchAll(ctx)
	if err != nil {
		meds = c.client.Medicines.Items()
	}

	c.printCard(emergency.BuildCard(user, meds))
	return nil
}

func (c *cli) scan(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}

	var result *model.ScanResult
	switch args[0] {
	case "import":
		raw, err := os.ReadFile(args[1])
		if err != nil {
			return errors.Validation("cannot read scan result", err)
		}
		result = &model.ScanResult{}
		if err := json.Unmarshal(raw, result); err != nil {
			return errors.Decode("scan result is not valid JSON", err)
		}

	case "image":
		image, err := os.ReadFile(args[1])
		if err != nil {
			return errors.Validation("cannot read prescription image", err)
		}
		scanner := scan.NewSampleScanner(c.now())
		scanner.Delay = c.scanDelay
		c.printf("Scanning prescription...\n")
		result, err = scanner.Scan(ctx, image)
		if err != nil {
			return err
		}

	default:
		return errUsage
	}

	report, err := c.client.Importer.ImportAll(ctx, result)
	if err != nil {
		return err
	}
	for _, m := range report.Created {
		c.printf("Added %s %s (%s)\n", m.Name, m.Dosage, m.Frequency)
	}
	for _, f := range report.Failed {
		c.printf("Could not add %s: %s\n", f.Name, errors.Message(f.Err))
	}
	if len(report.Created) == 0 {
		return errors.Validation("no medicines were added", nil)
	}
	return nil
}

func (c *cli) session(ctx context.Context, args []string) error {
	if len(args) != 1 || args[0] != "watch" {
		return errUsage
	}
	if c.client.Broker == nil {
		return errors.Validation("session.channel is not configured", nil)
	}

	events, err := session.Watch(ctx, c.client.Broker, c.client.Config.Session.Channel)
	if err != nil {
		return err
	}
	for e := range events {
		who := e.Email
		if who == "" {
			who = "-"
		}
		c.printf("%s  %-16s %-10s %s\n", e.At.Local().Format(time.RFC3339), e.Status, e.Reason, who)
	}
	return nil
}
