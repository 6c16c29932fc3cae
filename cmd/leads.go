package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mentormuni-server/db"
	"mentormuni-server/journal"
	"mentormuni-server/utils"
)

func newLeadsCmd(opts *rootOptions) *cobra.Command {
	var (
		kind   string
		limit  int
		fromDB bool
	)

	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Print recent journal entries as JSON lines, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := journal.ParseKind(kind)
			if err != nil {
				return err
			}
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var rec journal.Recorder = journal.NewFileJournal(cfg.DataDir, zap.NewNop())
			if fromDB {
				if cfg.DatabaseURL == "" {
					return fmt.Errorf("--from-db requires DATABASE_URL")
				}
				pool, err := db.InitDB(ctx, cfg.DatabaseURL, zap.NewNop())
				if err != nil {
					return err
				}
				defer pool.Close()
				rec = db.NewEventStore(pool)
			}

			entries, err := rec.Recent(ctx, k, utils.ClampLimit(limit, 1000, 100000))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, e := range entries {
				if err := enc.Encode(e); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", string(journal.KindLead), "entry kind: lead or contact")
	cmd.Flags().IntVarP(&limit, "limit", "n", 1000, "maximum entries to print")
	cmd.Flags().BoolVar(&fromDB, "from-db", false, "read from the PostgreSQL mirror instead of the data dir")
	return cmd
}
