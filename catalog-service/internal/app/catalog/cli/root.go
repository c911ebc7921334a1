// Package cli - команды syncctl для ручной сверки каталогов
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"tgshop/catalog-service/internal/app/catalog/entity"
	"tgshop/catalog-service/internal/app/catalog/service"
	"tgshop/catalog-service/internal/app/catalog/shopsync"

	"github.com/spf13/cobra"
)

// Backend - операции сервиса, доступные из командной строки
type Backend interface {
	service.Reconciler
	ListSyncRuns(ctx context.Context, ownerID int64, limit int64) ([]entity.SyncRun, error)
}

// Connector подключает Backend; close освобождает соединения
type Connector func(ctx context.Context) (backend Backend, close func(), err error)

// RootOptions - глобальные флаги
type RootOptions struct {
	Format string // text | json
}

// NewRootCommand создает корневую команду syncctl
func NewRootCommand(connect Connector) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "syncctl",
		Short:         "Catalog synchronization across owner shops",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", opts.Format)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newReconcileCommand(opts, connect))
	cmd.AddCommand(newSweepCommand(opts, connect))
	cmd.AddCommand(newRunsCommand(opts, connect))

	return cmd
}

func newReconcileCommand(opts *RootOptions, connect Connector) *cobra.Command {
	var ownerID int64

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile catalog of one owner across all active shops",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ownerID <= 0 {
				return fmt.Errorf("--owner is required")
			}

			backend, closeFn, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			report, err := backend.ReconcileOwner(cmd.Context(), ownerID, service.TriggerCLI)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), opts.Format, ownerID, report)
		},
	}

	cmd.Flags().Int64Var(&ownerID, "owner", 0, "Telegram ID of the shop owner")
	return cmd
}

func newSweepCommand(opts *RootOptions, connect Connector) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Reconcile catalogs of all owners with active shops",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, closeFn, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			done, sweepErr := backend.SweepAll(cmd.Context(), service.TriggerCLI)
			if err := writeValue(cmd.OutOrStdout(), opts.Format, map[string]int{"reconciled": done}, func(w io.Writer) {
				fmt.Fprintf(w, "reconciled owners: %d\n", done)
			}); err != nil {
				return err
			}
			return sweepErr
		},
	}
}

func newRunsCommand(opts *RootOptions, connect Connector) *cobra.Command {
	var ownerID int64
	var limit int64

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent reconciliation runs of an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ownerID <= 0 {
				return fmt.Errorf("--owner is required")
			}

			backend, closeFn, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			runs, err := backend.ListSyncRuns(cmd.Context(), ownerID, limit)
			if err != nil {
				return err
			}

			return writeValue(cmd.OutOrStdout(), opts.Format, runs, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "STARTED\tTRIGGER\tCREATED\tLINKED\tREPAIRED\tDELETED\tMS")
				for _, r := range runs {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
						r.StartedAt.Format("2006-01-02 15:04:05"), r.Trigger, r.Created, r.Linked, r.Repaired, r.Deleted, r.DurationMs)
				}
				tw.Flush()
			})
		},
	}

	cmd.Flags().Int64Var(&ownerID, "owner", 0, "Telegram ID of the shop owner")
	cmd.Flags().Int64Var(&limit, "limit", 20, "number of runs to show")
	return cmd
}

type reportOutput struct {
	OwnerUserID  int64 `json:"owner_user_id"`
	Created      int   `json:"created"`
	Linked       int   `json:"linked"`
	Repaired     int   `json:"repaired"`
	Deleted      int   `json:"deleted"`
	SyncedCount  int   `json:"synced_count"`
	DeletedCount int   `json:"deleted_count"`
}

func writeReport(w io.Writer, format string, ownerID int64, r *shopsync.Report) error {
	out := reportOutput{
		OwnerUserID:  ownerID,
		Created:      r.Created,
		Linked:       r.Linked,
		Repaired:     r.Repaired,
		Deleted:      r.Deleted,
		SyncedCount:  r.SyncedCount(),
		DeletedCount: r.Deleted,
	}

	return writeValue(w, format, out, func(w io.Writer) {
		fmt.Fprintf(w, "owner %d: created=%d linked=%d repaired=%d deleted=%d\n",
			ownerID, r.Created, r.Linked, r.Repaired, r.Deleted)
	})
}

func writeValue(w io.Writer, format string, v interface{}, text func(io.Writer)) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
