package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"moodlog/internal/apperr"
	"moodlog/internal/ledger"
	"moodlog/internal/responder"
	"moodlog/internal/sentiment"
	"moodlog/internal/service/journal"
)

type toolkit struct {
	ledger  *ledger.Ledger
	journal *journal.Service
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cipher *ledger.EntryCipher) *cli.App {
	l := ledger.New(db, cipher)
	tk := &toolkit{
		ledger:  l,
		journal: journal.NewService(db, l, sentiment.NewClassifier(nil), responder.New(nil), responder.MaxHistory),
	}
	app := &cli.App{
		Name:  "moodctl",
		Usage: "Administer the mood journal database",
		Commands: []*cli.Command{
			resetCmd(tk),
			checkCmd(tk),
			seedCmd(tk),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// resetCmd deletes entries for a single user or for everyone.
func resetCmd(tk *toolkit) *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Delete journal entries for one user or for everyone",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "Username or email whose entries are deleted"},
			&cli.BoolFlag{Name: "all", Usage: "Delete every entry, guests included"},
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm the deletion"},
		},
		Action: func(c *cli.Context) error {
			username, all := c.String("user"), c.Bool("all")
			if (username == "") == !all {
				return outputError(apperr.InvalidInput("exactly one of --user or --all is required"))
			}
			if !c.Bool("yes") {
				return outputError(apperr.InvalidInput("refusing to delete entries without --yes"))
			}

			var (
				deleted int64
				err     error
			)
			if all {
				deleted, err = tk.ledger.ResetAll(c.Context)
			} else {
				user, findErr := tk.journal.FindUser(c.Context, username)
				if findErr != nil {
					return outputError(findErr)
				}
				deleted, err = tk.ledger.ResetUser(c.Context, user.ID)
			}
			if err != nil {
				return outputError(apperr.Internal(err))
			}
			return outputJSON(c.App.Writer, map[string]any{"deleted": deleted})
		},
	}
}

type userSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Entries  int    `json:"entries"`
}

type checkOutput struct {
	Users        []userSummary `json:"users"`
	GuestEntries int           `json:"guest_entries"`
	TotalEntries int           `json:"total_entries"`
}

// checkCmd lists users together with their entry counts.
func checkCmd(tk *toolkit) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "List users and per-user entry counts",
		Action: func(c *cli.Context) error {
			users, err := tk.journal.ListUsers(c.Context)
			if err != nil {
				return outputError(err)
			}
			counts, err := tk.ledger.CountsByUser(c.Context)
			if err != nil {
				return outputError(apperr.Internal(err))
			}
			out := checkOutput{Users: make([]userSummary, 0, len(users)), GuestEntries: counts[0]}
			for _, u := range users {
				out.Users = append(out.Users, userSummary{ID: u.ID, Username: u.Username, Email: u.Email, Entries: counts[u.ID]})
			}
			for _, n := range counts {
				out.TotalEntries += n
			}
			return outputJSON(c.App.Writer, out)
		},
	}
}

// seedCmd recreates the test user with synthetic history.
func seedCmd(tk *toolkit) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Recreate the test user with synthetic mood entries",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Value: defaultSeedDays, Usage: "Number of days of history"},
			&cli.IntFlag{Name: "max-per-day", Value: defaultSeedPerDay, Usage: "Maximum check-ins per day"},
			&cli.Uint64Flag{Name: "seed", Usage: "Random seed (0 picks one from the clock)"},
		},
		Action: func(c *cli.Context) error {
			out, err := seedJournal(c.Context, tk, seedOptions{
				Days:      c.Int("days"),
				MaxPerDay: c.Int("max-per-day"),
				Seed:      c.Uint64("seed"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, out)
		},
	}
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	appErr := apperr.From(err)
	if appErr.Code == apperr.CodeInternal {
		return cli.Exit(fmt.Sprintf("[%s] %v", appErr.Code, err), 1)
	}
	return cli.Exit(fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message), 1)
}
