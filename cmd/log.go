package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sw33tLie/contestlog/internal/utils"
	"github.com/sw33tLie/contestlog/pkg/adif"
	"github.com/sw33tLie/contestlog/pkg/logbook"
	"github.com/sw33tLie/contestlog/pkg/scoring"
	"github.com/sw33tLie/contestlog/pkg/session"
	"github.com/sw33tLie/contestlog/pkg/storage"
)

// logCmd represents the log command
var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Work with the QSO log book",
}

var logAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a QSO, scoring it against the active contest",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		return withWriteLock(cmd, func() error {
			s, book, err := openSession(ctx, db)
			if err != nil {
				return err
			}
			rec, err := qsoFromFlags(cmd, s)
			if err != nil {
				return err
			}
			if rec.Item(logbook.FieldCall) == "" {
				return fmt.Errorf("please provide the callsign worked via --call")
			}

			q, err := commitQSO(ctx, db, s, book, rec)
			if err != nil {
				return err
			}
			if !q.Scored {
				fmt.Printf("Logged %s (not scored)\n", rec.Item(logbook.FieldCall))
				return nil
			}
			fmt.Printf("Send: %s\n", q.Sent)
			fmt.Printf("Logged %s: %d points", rec.Item(logbook.FieldCall), q.Result.QSOPoints)
			if q.Result.Multiplier != 0 {
				fmt.Printf(", new multiplier %s", q.Result.MultiplierKey)
			}
			fmt.Println()
			printTotals("Score", s.Committed())
			return closeSession(ctx, db, s)
		})
	},
}

// loggedQSO is the outcome of committing one QSO.
type loggedQSO struct {
	ID     int64
	Sent   string
	Scored bool
	Result scoring.Result
}

// commitQSO stores rec. A record claimed for the selected contest also gets
// the sent exchange, is scored and advances the serial number.
func commitQSO(ctx context.Context, db *storage.DB, s *session.Session, book *storage.Book, rec logbook.Fields) (loggedQSO, error) {
	q := loggedQSO{Scored: rec.Item(logbook.FieldContestID) != ""}
	if q.Scored {
		sent, err := s.GenerateExchange(rec)
		if err != nil {
			return q, err
		}
		q.Sent = sent
	}

	id, err := db.AddQSO(ctx, rec)
	if err != nil {
		return q, err
	}
	q.ID = id
	idx := book.Append(id, rec)
	utils.Log.WithFields(logrus.Fields{"id": id, "call": rec.Item(logbook.FieldCall)}).Debug("QSO stored")

	if !q.Scored {
		return q, nil
	}
	q.Result, err = s.AddQSO(idx)
	if err != nil {
		return q, err
	}
	if s.UsesSerialNumber() {
		s.IncrementSerial()
	}
	return q, nil
}

var logEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a logged QSO and re-score the selected contest",
	Example: `  contestlog log edit 42 --set SRX=017
  contestlog log edit 42 --set ITUZ=8 --set CONT=NA`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid QSO id %q", args[0])
		}
		sets, _ := cmd.Flags().GetStringArray("set")
		if len(sets) == 0 {
			return fmt.Errorf("nothing to change, use --set NAME=VALUE")
		}

		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		return withWriteLock(cmd, func() error {
			f, err := editQSO(ctx, db, id, sets)
			if err != nil {
				return err
			}
			fmt.Printf("Updated QSO %d (%s)\n", id, f.Item(logbook.FieldCall))

			// Reopening replays the log book, so the edit is reflected in the score.
			s, _, err := openSession(ctx, db)
			if err != nil {
				return err
			}
			if s.ContestID() != "" {
				printTotals("Score", s.Committed())
			}
			return nil
		})
	},
}

// editQSO applies NAME=VALUE assignments to the stored record id. An empty
// value removes the field.
func editQSO(ctx context.Context, db *storage.DB, id int64, assignments []string) (logbook.Fields, error) {
	f, err := db.GetQSO(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, a := range assignments {
		name, value, ok := strings.Cut(a, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q, want NAME=VALUE", a)
		}
		f.SetItem(name, strings.TrimSpace(value))
	}
	if err := db.UpdateQSO(ctx, id, f); err != nil {
		return nil, err
	}
	return f, nil
}

var logImportCmd = &cobra.Command{
	Use:   "import <file.adi>",
	Short: "Import QSOs from an ADIF file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		recs, err := adif.ReadAll(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		return withWriteLock(cmd, func() error {
			imported := 0
			for i, rec := range recs {
				if _, err := db.AddQSO(cmd.Context(), rec); err != nil {
					utils.Log.WithError(err).WithFields(logrus.Fields{"record": i, "call": rec.Item(logbook.FieldCall)}).Warn("Skipping QSO")
					continue
				}
				imported++
			}
			fmt.Printf("Imported %d of %d QSOs from %s\n", imported, len(recs), args[0])
			return nil
		})
	},
}

var logListCmd = &cobra.Command{
	Use:   "list",
	Short: "List logged QSOs, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		contestFilter, _ := cmd.Flags().GetString("contest")
		limit, _ := cmd.Flags().GetInt("limit")

		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		book, err := db.LoadBook(cmd.Context())
		if err != nil {
			return err
		}

		var rows []int
		for i := 0; i < book.Len(); i++ {
			rec, err := book.Record(i)
			if err != nil {
				return err
			}
			if contestFilter != "" && !strings.EqualFold(rec.Item(logbook.FieldContestID), contestFilter) {
				continue
			}
			rows = append(rows, i)
		}
		if limit > 0 && len(rows) > limit {
			rows = rows[len(rows)-limit:]
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDATE\tTIME\tCALL\tBAND\tMODE\tCONTEST\tSENT\tRCVD\t")
		for _, i := range rows {
			rec, _ := book.Record(i)
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
				book.ID(i), rec.Item(logbook.FieldQSODate), rec.Item(logbook.FieldTimeOn), rec.Item(logbook.FieldCall),
				rec.Item(logbook.FieldBand), rec.Item(logbook.FieldMode), rec.Item(logbook.FieldContestID),
				exchangeText(rec, logbook.FieldRSTSent, logbook.FieldSTX, logbook.FieldMyITUZone),
				exchangeText(rec, logbook.FieldRSTRcvd, logbook.FieldSRX, logbook.FieldITUZ))
		}
		return w.Flush()
	},
}

func exchangeText(rec logbook.Record, fields ...string) string {
	var parts []string
	for _, f := range fields {
		if v := rec.Item(f); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logAddCmd)
	logCmd.AddCommand(logImportCmd)
	logCmd.AddCommand(logListCmd)
	logCmd.AddCommand(logEditCmd)

	addQSOFlags(logAddCmd)
	logEditCmd.Flags().StringArray("set", nil, "Field assignment NAME=VALUE, repeatable (empty VALUE removes the field)")
	logListCmd.Flags().String("contest", "", "Only QSOs logged under this contest id")
	logListCmd.Flags().Int("limit", 0, "Show only the most recent N QSOs (0 for all)")
}
