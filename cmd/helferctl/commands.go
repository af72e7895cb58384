package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	auditstore "github.com/dalemusser/helferhub/internal/app/store/audit"
	eventstore "github.com/dalemusser/helferhub/internal/app/store/events"
	jobstore "github.com/dalemusser/helferhub/internal/app/store/jobs"
	shiftstore "github.com/dalemusser/helferhub/internal/app/store/shifts"
	userstore "github.com/dalemusser/helferhub/internal/app/store/users"
	"github.com/dalemusser/helferhub/internal/app/system/archive"
	"github.com/dalemusser/helferhub/internal/app/system/badgeprovision"
	"github.com/dalemusser/helferhub/internal/app/system/eventimport"
	"github.com/dalemusser/helferhub/internal/app/system/timeouts"
	"github.com/dalemusser/helferhub/internal/app/system/txn"
	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

// inTxn runs fn in a transaction on the command's database.
func inTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	return txn.Run(ctx, app.db, app.logger, fn)
}

func importEventCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-event <file.yaml>",
		Short: "Create an event with its jobs and shifts from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := eventimport.LoadFromPath(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(app.ctx, timeouts.Long())
			defer cancel()

			im := eventimport.New(
				eventstore.New(app.db),
				jobstore.New(app.db),
				shiftstore.New(app.db),
				userstore.New(app.db),
				inTxn,
				app.logger,
			)
			res, err := im.Import(ctx, f)
			if err != nil {
				return err
			}

			app.audit.EventImported(ctx, res.Event.URLName, res.Jobs, res.Shifts)

			fmt.Printf("\nImported %s (%s)\n", res.Event.Name, res.Event.URLName)
			fmt.Printf("Jobs:   %d\n", res.Jobs)
			fmt.Printf("Shifts: %d\n\n", res.Shifts)
			return nil
		},
	}
}

func archiveEventCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive-event <url_name>",
		Short: "Freeze coordinator counts and mark the event archived",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(app.ctx, timeouts.Long())
			defer cancel()

			svc := archive.New(eventstore.New(app.db), jobstore.New(app.db), inTxn, app.logger)
			res, err := svc.Archive(ctx, args[0])
			if errors.Is(err, archive.ErrAlreadyArchived) {
				fmt.Printf("%s is already archived\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}

			app.audit.EventArchived(ctx, res.Event.URLName, res.Jobs)

			fmt.Printf("\nArchived %s\n", res.Event.URLName)
			fmt.Printf("Jobs:         %d\n", res.Jobs)
			fmt.Printf("Coordinators: %d\n\n", res.Coordinators)
			return nil
		},
	}
}

func enableBadgesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable-badges <url_name>",
		Short: "Turn on badges for an event and attach badge defaults to its jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(app.ctx, timeouts.Long())
			defer cancel()

			events := eventstore.New(app.db)
			ev, err := events.GetByURLName(ctx, args[0])
			if errors.Is(err, mongo.ErrNoDocuments) {
				return fmt.Errorf("event %q not found", args[0])
			}
			if err != nil {
				return err
			}

			n, err := badgeprovision.Enable(ctx, events, jobstore.New(app.db), ev)
			if err != nil {
				return err
			}
			app.audit.BadgesEnabled(ctx, ev.URLName, n)
			fmt.Printf("Badges enabled for %s; %d job(s) provisioned\n", ev.URLName, n)
			return nil
		},
	}
}

func createUserCmd() *cobra.Command {
	var (
		login     string
		name      string
		superuser bool
	)
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an admin account; the password is read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(os.Stderr, "Password: ")
			password, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && password == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(password, "\r\n")

			ctx, cancel := context.WithTimeout(app.ctx, timeouts.Short())
			defer cancel()

			u, err := userstore.New(app.db).Create(ctx, models.User{
				LoginID:   login,
				FullName:  name,
				Superuser: superuser,
			}, password)
			if errors.Is(err, userstore.ErrDuplicateLoginID) {
				return fmt.Errorf("login id %q is taken", login)
			}
			if err != nil {
				return err
			}
			app.audit.UserCreated(ctx, u.ID, u.LoginID, u.Superuser)
			fmt.Printf("Created user %s (%s)\n", u.LoginID, u.ID.Hex())
			return nil
		},
	}
	cmd.Flags().StringVar(&login, "login", "", "Login id")
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().BoolVar(&superuser, "superuser", false, "Grant superuser rights")
	_ = cmd.MarkFlagRequired("login")
	return cmd
}

func auditCmd() *cobra.Command {
	var (
		event    string
		category string
		since    time.Duration
		limit    int64
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List recent audit events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(app.ctx, timeouts.Medium())
			defer cancel()

			f := auditstore.QueryFilter{EventURLName: event, Category: category, Limit: limit}
			if since > 0 {
				start := time.Now().UTC().Add(-since)
				f.StartTime = &start
			}
			events, err := auditstore.New(app.db).Query(ctx, f)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("No audit events.")
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tTYPE\tEVENT\tLOGIN\tIP\tOK")
			for _, e := range events {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\n",
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					e.EventType, dash(e.EventURLName), dash(e.LoginID), dash(e.IP), e.Success)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&event, "event", "", "Only events touching this url name")
	cmd.Flags().StringVar(&category, "category", "", "Only this category (auth, admin)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only events newer than this, e.g. 24h")
	cmd.Flags().Int64Var(&limit, "limit", 50, "Maximum number of events")
	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
