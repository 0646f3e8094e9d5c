package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/carlostcba/GustadosPOS-sub000/internal/app"
	"github.com/carlostcba/GustadosPOS-sub000/internal/migration"
	"github.com/carlostcba/GustadosPOS-sub000/internal/seeder"
	grpcserver "github.com/carlostcba/GustadosPOS-sub000/internal/server/grpc"
	reportsvc "github.com/carlostcba/GustadosPOS-sub000/internal/service/report"
)

// NewRootCommand builds the root gustados CLI command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "gustados",
		Short: "GustadosPOS service toolkit",
	}

	root.AddCommand(newStartCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newWorkerCmd())
	root.AddCommand(newReportCmd())

	return root
}

// Execute runs the gustados CLI.
func Execute() error {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.Module
			if withGRPC, _ := cmd.Flags().GetBool("with-grpc"); withGRPC {
				opts = fx.Options(opts, grpcserver.Module)
			}
			application := fx.New(opts)
			if err := application.Start(cmd.Context()); err != nil {
				return err
			}
			<-cmd.Context().Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return application.Stop(stopCtx)
		},
	}
	cmd.Flags().Bool("with-grpc", false, "Also expose the gRPC server")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Up(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			all, _ := cmd.Flags().GetBool("all")
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Down(ctx, steps, all); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
				return nil
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migration steps to rollback")
	downCmd.Flags().Bool("all", false, "Rollback all applied migrations")

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Run database seeders",
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed *seeder.Seeder
			opts := fx.Options(app.Core, seeder.Module, fx.Populate(&seed))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := seed.All(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "seed data applied")
				return nil
			})
		},
	}
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage background workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run worker engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			application := fx.New(app.Worker)
			if err := application.Start(cmd.Context()); err != nil {
				return err
			}
			<-cmd.Context().Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return application.Stop(stopCtx)
		},
	})
	return cmd
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <register-id>",
		Short: "Print the shift report for a register",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registerID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid register id %q", args[0])
			}
			search, _ := cmd.Flags().GetString("search")

			var reports *reportsvc.Service
			opts := fx.Options(app.Core, fx.Populate(&reports))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				report, err := reports.ForRegister(ctx, registerID, search)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintf(w, "PRODUCT\tQTY\tGROSS\tNET\n")
				for _, line := range report.Lines {
					fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\n",
						line.ProductName,
						line.Quantity.String(), line.UnitLabel,
						line.GrossTotal.StringFixed(2),
						line.DiscountedTotal.StringFixed(2))
				}
				if err := w.Flush(); err != nil {
					return err
				}

				fmt.Fprintf(out, "\nexpected cash: %s\n", report.ExpectedCash.StringFixed(2))
				if report.Register.ClosedAt != nil {
					fmt.Fprintf(out, "difference:    %s\n", report.Difference.StringFixed(2))
				} else {
					fmt.Fprintln(out, "register still open")
				}
				return nil
			})
		},
	}
	cmd.Flags().String("search", "", "Filter report lines by product name")
	return cmd
}

func runWithApp(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, fx.NopLogger)
	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(ctx)
}
