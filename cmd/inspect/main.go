// Command inspect looks into the assistant's stores and probes its health.
// The badger store is opened read-only so it can run next to the server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"remind-lab/analytics"
	"remind-lab/infrastructure/grpc/server"
	"remind-lab/internal"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type Config struct {
	BadgerPath    string        `envconfig:"BADGER_FILEPATH" default:"./data/badger"`
	AnalyticsPath string        `envconfig:"ANALYTICS_FILEPATH" default:"./data/analytics.db"`
	GrpcAddr      string        `envconfig:"INSPECT_GRPC_ADDR" default:"localhost:5001"`
	Timeout       time.Duration `envconfig:"INSPECT_TIMEOUT" default:"3s"`
	// INSPECT_COLOURS enables colorized output
	Colours bool `envconfig:"INSPECT_COLOURS" default:"true"`
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfg Config
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Look into the assistant's stores",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := envconfig.Process("", &cfg); err != nil {
				return err
			}
			color.Enable = cfg.Colours
			return nil
		},
		SilenceUsage: true,
	}
	cmd.AddCommand(keysCmd(&cfg), analyticsCmd(&cfg), healthCmd(&cfg))
	return cmd
}

func keysCmd(cfg *Config) *cobra.Command {
	var (
		prefix string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List badger keys under a prefix (msg:, reminder:, pref:, calendar:, daily:)",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cfg.BadgerPath)
			if err != nil {
				return fmt.Errorf("opening badger: %w", err)
			}
			defer func() { _ = db.Close() }()

			rows, err := internal.Browse(db, prefix, limit, internal.DefaultMapper)
			if err != nil {
				return err
			}
			printKeys(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "reminder:", "Prefix to scan")
	cmd.Flags().IntVar(&limit, "limit", 200, "Maximum number of keys")
	return cmd
}

func analyticsCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show per-phone counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := analytics.Open(cfg.AnalyticsPath, slog.New(slog.DiscardHandler))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()
			all, err := store.List(ctx)
			if err != nil {
				return err
			}
			table := newTable(cmd.OutOrStdout(), "Phone", "Messages", "Reminders", "Completed", "Notified", "Failed")
			for _, a := range all {
				failed := strconv.FormatInt(a.Failed, 10)
				if a.Failed > 0 {
					failed = color.Red.Render(failed)
				}
				table.Append([]string{
					a.Phone,
					strconv.FormatInt(a.Messages, 10),
					strconv.FormatInt(a.Reminders, 10),
					strconv.FormatInt(a.Completed, 10),
					strconv.FormatInt(a.Notified, 10),
					failed,
				})
			}
			table.Render()
			return nil
		},
	}
}

func healthCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the gRPC health service",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := grpc.NewClient(cfg.GrpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()
			res, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: server.AssistantService})
			if err != nil {
				return fmt.Errorf("health check on %s: %w", cfg.GrpcAddr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cfg.GrpcAddr, renderStatus(res.Status))
			if res.Status != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("assistant is %s", strings.ToLower(res.Status.String()))
			}
			return nil
		},
	}
}

func renderStatus(status healthpb.HealthCheckResponse_ServingStatus) string {
	if status == healthpb.HealthCheckResponse_SERVING {
		return color.New(color.BgBlack, color.FgGreen).Render(status.String())
	}
	return color.New(color.BgBlack, color.FgRed).Render(status.String())
}

func printKeys(w io.Writer, rows []internal.InspectRow) {
	table := newTable(w, "Key", "Type", "Timestamp", "Entity ID", "Phone", "Detail")
	for _, row := range rows {
		table.Append([]string{row.Key, color.Cyan.Render(row.Type), row.Timestamp, row.EntityID, row.Phone, row.Detail})
	}
	table.Render()
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
