// Command opsctl runs board operations from the operator's machine: CSV
// imports, listings and status-message copies to the local clipboard.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/unclebandit/opsboard-backend/internal/clipboard"
	"github.com/unclebandit/opsboard-backend/internal/config"
	"github.com/unclebandit/opsboard-backend/internal/db"
	"github.com/unclebandit/opsboard-backend/internal/filter"
	"github.com/unclebandit/opsboard-backend/internal/indicator"
	"github.com/unclebandit/opsboard-backend/internal/logging"
	"github.com/unclebandit/opsboard-backend/internal/model"
	"github.com/unclebandit/opsboard-backend/internal/repository"
	"github.com/unclebandit/opsboard-backend/internal/service"
)

const Version = "0.1.0"

type app struct {
	operations *service.OperationService
	imports    *service.ImportService
	messages   *service.MessageService
	close      func()
}

type appFactory func(ctx context.Context) (*app, error)

func main() {
	if err := rootCmd(openApp).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openApp wires the services over PostgreSQL. Changes are not published:
// the CLI has no subscribers of its own.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	conn, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	entityRepo := &repository.EntityRepository{DB: conn}
	operationRepo := &repository.OperationRepository{DB: conn}
	operations := &service.OperationService{Repo: operationRepo, AlertWindowDays: cfg.AlertWindowDays}
	return &app{
		operations: operations,
		imports:    &service.ImportService{Repo: operationRepo, EntityRepo: entityRepo, Operations: operations},
		messages: &service.MessageService{
			Operations: operationRepo,
			Entities:   entityRepo,
			Templates:  &repository.TemplateRepository{DB: conn},
			Sent:       &repository.SentMessageRepository{DB: conn},
			Clipboard:  clipboard.System{},
			Indicator:  indicator.NewMemory(),
		},
		close: func() { conn.Close() },
	}, nil
}

func rootCmd(newApp appFactory) *cobra.Command {
	var (
		logLevel string
		a        *app
	)

	cmd := &cobra.Command{
		Use:           "opsctl",
		Short:         "Operate the marketing operations board",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(logLevel, "text")
			if cmd.Name() == "version" {
				return nil
			}
			var err error
			a, err = newApp(cmd.Context())
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil && a.close != nil {
				a.close()
			}
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	current := func() *app { return a }
	cmd.AddCommand(
		importCmd(current),
		listCmd(current),
		copyCmd(current),
		deleteCmd(current),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "opsctl version %s\n", Version)
			},
		},
	)
	return cmd
}

func importCmd(current func() *app) *cobra.Command {
	var (
		entityID int
		kind     string
	)
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import operations from a CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := model.ParseKind(kind)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := current().imports.Import(cmd.Context(), entityID, k, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d operation(s) imported, %d row(s) skipped (batch %s)\n", res.Imported, res.Skipped, res.BatchID)
			return nil
		},
	}
	cmd.Flags().IntVar(&entityID, "entity", 0, "Entity id")
	cmd.Flags().StringVar(&kind, "kind", string(model.KindEmail), "Operation kind (email, slider, social)")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}

func listCmd(current func() *app) *cobra.Command {
	var (
		entityID int
		kind     string
		criteria filter.Criteria
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List operations of an entity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := model.ParseKind(kind)
			if err != nil {
				return err
			}
			views, err := current().operations.List(cmd.Context(), entityID, k, criteria)
			if err != nil {
				return err
			}
			return printOperations(cmd.OutOrStdout(), views)
		},
	}
	cmd.Flags().IntVar(&entityID, "entity", 0, "Entity id")
	cmd.Flags().StringVar(&kind, "kind", string(model.KindEmail), "Operation kind (email, slider, social)")
	cmd.Flags().BoolVar(&criteria.ShowArchived, "archived", false, "Show archived operations")
	cmd.Flags().BoolVar(&criteria.RequireNotScheduled, "not-scheduled", false, "Only operations not yet scheduled")
	cmd.Flags().StringVar(&criteria.Theme, "theme", "", "Theme substring")
	cmd.Flags().StringVar(&criteria.Language, "language", "", "Language code")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}

func copyCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copy <operation-id> <trigger>",
		Short: "Copy the status message for a checklist stage to the clipboard",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid operation id %q", args[0])
			}
			res, err := current().messages.Copy(cmd.Context(), service.CopyRequest{
				OperationID: id,
				Trigger:     model.Flag(args[1]),
				ClickID:     uuid.NewString(),
			})
			if err != nil {
				return err
			}
			log.WithField("sent_message_id", res.SentMessageID).Debug("copied")
			fmt.Fprintf(cmd.OutOrStdout(), "Copied to clipboard:\n%s\n", res.Text)
			return nil
		},
	}
}

func deleteCmd(current func() *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <operation-id>",
		Short: "Permanently delete an operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid operation id %q", args[0])
			}
			if err := current().operations.Delete(cmd.Context(), id, yes); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "operation %d deleted\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
	return cmd
}

func printOperations(w io.Writer, views []service.OperationView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTITLE\tLANG\tCHECKLIST\tALERT")
	for _, v := range views {
		alert := ""
		if v.Alert.Show {
			alert = fmt.Sprintf("J-%d", v.Alert.Days)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", v.ID, v.SendDate.Format(), v.Title, v.Language, checklistMarks(v.Checklist), alert)
	}
	return tw.Flush()
}

// checklistMarks renders the five stages as x or - in canonical order.
func checklistMarks(c model.Checklist) string {
	var b strings.Builder
	for _, f := range model.Flags {
		if c.Get(f) {
			b.WriteByte('x')
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}
