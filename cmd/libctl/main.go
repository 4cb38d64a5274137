package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oksasatya/library-loans-api/config"
	"github.com/oksasatya/library-loans-api/internal/application"
	"github.com/oksasatya/library-loans-api/internal/domain/entity"
	pginfra "github.com/oksasatya/library-loans-api/internal/infrastructure/postgres"
	"github.com/oksasatya/library-loans-api/pkg/helpers"
)

type app struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// services opens the postgres pool and builds the services on top of it.
// The caller must call the returned close func.
func (a *app) services(ctx context.Context) (*application.BookService, *application.UserService, *application.LoanService, func(), error) {
	pool, err := pginfra.NewPool(ctx, a.cfg.PostgresDSN(), a.cfg.DBMaxConns, a.cfg.DBMinConns, a.cfg.DBMaxConnLife)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := pginfra.NewStore(pool)
	books := application.NewBookService(store, nil, "", a.logger)
	users := application.NewUserService(store, a.logger)
	loans := application.NewLoanService(store, books, nil, a.logger)
	loans.Location = a.cfg.Location()
	loans.DefaultDays = a.cfg.LoanDefaultDays
	return books, users, loans, pool.Close, nil
}

func main() {
	_ = godotenv.Load()
	a := &app{cfg: config.Load()}
	a.logger = helpers.NewLogger(a.cfg.AppName+"-cli", a.cfg.Env)

	root := &cobra.Command{
		Use:           "libctl",
		Short:         "Administrative commands for the library loans API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		a.migrateCmd(),
		a.seedCmd(),
		a.markOverdueCmd(),
		a.borrowCmd(),
		a.returnCmd(),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		helpers.LogError(a.logger, "command failed", err, nil)
		os.Exit(1)
	}
}

func (a *app) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "migrate", Short: "Manage database migrations"}

	open := func() (*pginfra.Migrator, error) {
		return pginfra.NewMigrator(a.cfg.PostgresDSN(), a.cfg.MigrationsDir, a.logger)
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			return m.Up()
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			return m.Down(steps)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			v, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", v, dirty)
			return nil
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

var seedBooks = []application.CreateBookInput{
	{Title: "Dune", Author: "Frank Herbert", RegistrationNumber: "SF-0001", Genre: entity.GenreScienceFiction},
	{Title: "Foundation", Author: "Isaac Asimov", RegistrationNumber: "SF-0002", Genre: entity.GenreScienceFiction},
	{Title: "The Hobbit", Author: "J.R.R. Tolkien", RegistrationNumber: "FA-0001", Genre: entity.GenreFantasy},
	{Title: "Pride and Prejudice", Author: "Jane Austen", RegistrationNumber: "RO-0001", Genre: entity.GenreRomance},
	{Title: "Dracula", Author: "Bram Stoker", RegistrationNumber: "HO-0001", Genre: entity.GenreHorror},
	{Title: "The Hound of the Baskervilles", Author: "Arthur Conan Doyle", RegistrationNumber: "MY-0001", Genre: entity.GenreMystery},
	{Title: "A Brief History of Time", Author: "Stephen Hawking", RegistrationNumber: "SC-0001", Genre: entity.GenreScience},
	{Title: "Treasure Island", Author: "Robert Louis Stevenson", RegistrationNumber: "AD-0001", Genre: entity.GenreAdventure},
}

func (a *app) seedCmd() *cobra.Command {
	var (
		email    string
		password string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert a demo catalogue and a demo user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			books, users, _, done, err := a.services(ctx)
			if err != nil {
				return err
			}
			defer done()

			created := 0
			for _, in := range seedBooks {
				b, err := books.CreateBook(ctx, in)
				if errors.Is(err, application.ErrRegistrationTaken) {
					continue
				}
				if err != nil {
					return fmt.Errorf("seed book %s: %w", in.RegistrationNumber, err)
				}
				created++
				a.logger.WithField("book_id", b.ID).Debug("seeded book")
			}

			u, err := users.CreateUser(ctx, application.CreateUserInput{
				Name:               "Demo Reader",
				Email:              email,
				RegistrationNumber: "U-0001",
				Password:           password,
			})
			switch {
			case errors.Is(err, application.ErrEmailTaken), errors.Is(err, application.ErrRegistrationTaken):
				helpers.LogInfo(a.logger, "demo user already present", logrus.Fields{"email": email})
			case err != nil:
				return fmt.Errorf("seed user: %w", err)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "seeded user: id=%s email=%s password=%s\n", u.ID, email, password)
			}

			helpers.LogInfo(a.logger, "seed complete", logrus.Fields{"books_created": created, "books_total": len(seedBooks)})
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "reader@example.com", "demo user email")
	cmd.Flags().StringVar(&password, "password", "password123", "demo user password")
	return cmd
}

func (a *app) markOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-overdue",
		Short: "Move active loans past their due date to delayed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			_, _, loans, done, err := a.services(ctx)
			if err != nil {
				return err
			}
			defer done()

			n, err := loans.UpdateDelayedLoans(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d loan(s) marked as delayed\n", n)
			return nil
		},
	}
}

func (a *app) borrowCmd() *cobra.Command {
	var userID, bookID, due string
	cmd := &cobra.Command{
		Use:   "borrow",
		Short: "Lend a book to a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			_, _, loans, done, err := a.services(ctx)
			if err != nil {
				return err
			}
			defer done()

			var dueDate *time.Time
			if due != "" {
				d, err := entity.ParseDate(due)
				if err != nil {
					return fmt.Errorf("--due: %w", err)
				}
				if !d.After(loans.Today()) {
					return fmt.Errorf("--due must be after %s", entity.FormatDate(loans.Today()))
				}
				dueDate = &d
			}

			l, err := loans.BorrowBook(ctx, userID, bookID, dueDate)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loan %s created, due %s\n", l.ID, entity.FormatDate(l.DueDate))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "borrowing user id")
	cmd.Flags().StringVar(&bookID, "book", "", "book id")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD), defaults to the configured loan period")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("book")
	return cmd
}

func (a *app) returnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "return <loan-id>",
		Short: "Return a borrowed book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, _, loans, done, err := a.services(ctx)
			if err != nil {
				return err
			}
			defer done()

			l, err := loans.ReturnBook(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loan %s is %s\n", l.ID, l.Status)
			return nil
		},
	}
}
