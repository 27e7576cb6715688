package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"maintrack/internal/config"
	"maintrack/internal/core"
	"maintrack/internal/export"
	"maintrack/internal/log"
	"maintrack/internal/services"
	"maintrack/internal/storage"
)

type adminOptions struct {
	dbPath string
	logger *log.Logger
}

// NewAdminCmd builds the maintrack-admin command tree. Every command works
// against the SQLite database at --db.
func NewAdminCmd(cfg *config.Config, logger *log.Logger) *cobra.Command {
	opts := &adminOptions{logger: logger}

	root := &cobra.Command{
		Use:           "maintrack-admin",
		Short:         "Maintenance tracker administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", cfg.SQLiteDBPath, "SQLite database path")

	root.AddCommand(
		migrateCmd(opts),
		userCmd(opts),
		tenantCmd(opts),
		exportCmd(opts),
	)
	return root
}

func (o *adminOptions) open() (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(o.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", o.dbPath, err)
	}
	return repo, nil
}

func migrateCmd(o *adminOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := storage.RunMigrations(o.dbPath); err != nil {
				return err
			}
			return printVersion(cmd, o.dbPath)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			if err := storage.RollbackMigrations(o.dbPath, steps); err != nil {
				return err
			}
			o.logger.Warn("Migrations rolled back", "steps", steps, "db", o.dbPath)
			return printVersion(cmd, o.dbPath)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printVersion(cmd, o.dbPath)
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func printVersion(cmd *cobra.Command, dbPath string) error {
	v, dirty, err := storage.MigrationVersion(dbPath)
	if err != nil {
		return err
	}
	if dirty {
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty)\n", v)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
	return nil
}

func userCmd(o *adminOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage login accounts",
	}

	var in services.SignUp
	var role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a login account",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := o.open()
			if err != nil {
				return err
			}
			defer repo.Close()

			in.Role = core.Role(role)
			in.Confirm = in.Password
			u, err := services.NewAccountService(repo, repo, nil).CreateAccount(cmd.Context(), in)
			if err != nil {
				return err
			}
			o.logger.Info("Account created", log.FieldUserID, u.ID, log.FieldRole, string(u.Role))
			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", u.Role, u.Email, u.ID)
			return nil
		},
	}
	create.Flags().StringVar(&in.Email, "email", "", "login email")
	create.Flags().StringVar(&in.Password, "password", "", "password (at least 6 characters)")
	create.Flags().StringVar(&role, "role", string(core.RoleAdmin), "admin, manager or tenant")
	create.Flags().StringVar(&in.TenantID, "tenant-id", "", "tenant row for tenant accounts")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}

func tenantCmd(o *adminOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Inspect the tenant roster",
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List tenants by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := o.open()
			if err != nil {
				return err
			}
			defer repo.Close()

			tenants, err := services.NewTenantService(repo, nil, nil).List(cmd.Context(), core.TenantStatus(status))
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tSTATUS\tPHONE")
			for _, t := range tenants {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Category, t.Status, t.Phone)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&status, "status", "", "active or inactive; empty lists all")

	cmd.AddCommand(list)
	return cmd
}

func exportCmd(o *adminOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write record documents to disk",
	}

	var format, outDir string
	record := &cobra.Command{
		Use:   "record <id>",
		Short: "Export one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := export.ForFormat(format)
			if err != nil {
				return fmt.Errorf("%w (available: %s)", err, strings.Join(export.Formats(), ", "))
			}
			repo, err := o.open()
			if err != nil {
				return err
			}
			defer repo.Close()

			rec, err := repo.GetRecord(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			doc, err := renderer.Render(rec)
			if err != nil {
				return fmt.Errorf("render %s: %w", renderer.Extension(), err)
			}
			return writeFile(cmd, outDir, export.Filename(rec, renderer.Extension()), doc)
		},
	}
	record.Flags().StringVar(&format, "format", "pdf", "pdf, docx or xlsx")
	record.Flags().StringVar(&outDir, "out", ".", "output directory")

	var allOut string
	var year int
	all := &cobra.Command{
		Use:   "all",
		Short: "Export every record as one PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := o.open()
			if err != nil {
				return err
			}
			defer repo.Close()

			recs, err := listRecords(cmd.Context(), repo, year)
			if err != nil {
				return err
			}
			doc, err := export.RenderRecordList(recs)
			if err != nil {
				return fmt.Errorf("render record list: %w", err)
			}
			return writeFile(cmd, allOut, export.ListFilename, doc)
		},
	}
	all.Flags().StringVar(&allOut, "out", ".", "output directory")
	all.Flags().IntVar(&year, "year", 0, "only records of this year")

	cmd.AddCommand(record, all)
	return cmd
}

func listRecords(ctx context.Context, repo *storage.SQLiteRepository, year int) ([]core.MaintenanceRecord, error) {
	return services.NewMaintenanceService(repo, repo, nil, nil, nil).List(ctx, year)
}

func writeFile(cmd *cobra.Command, dir, name string, body []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", path, len(body))
	return nil
}
