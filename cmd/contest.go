package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/contestlog/internal/utils"
	"github.com/sw33tLie/contestlog/pkg/logbook"
	"github.com/sw33tLie/contestlog/pkg/session"
)

// contestCmd represents the contest command
var contestCmd = &cobra.Command{
	Use:   "contest",
	Short: "Select a contest and follow its score",
}

var contestSelectCmd = &cobra.Command{
	Use:   "select <contest-id> <instance>",
	Short: "Select the contest QSOs are logged and scored against",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		if _, err := loadCatalog(ctx, db).Lookup(args[0], args[1]); err != nil {
			return err
		}

		return withWriteLock(cmd, func() error {
			prev, err := db.LoadSessionState(ctx)
			if err != nil {
				return err
			}
			st := session.State{ContestID: args[0], Instance: args[1], NextSerial: 1}
			if prev.ContestID == st.ContestID && prev.Instance == st.Instance {
				st.Active = prev.Active
				st.NextSerial = prev.NextSerial
			}
			if err := db.SaveSessionState(ctx, st); err != nil {
				return err
			}

			s, _, err := openSession(ctx, db)
			if err != nil {
				return err
			}
			printSession(s)
			return closeSession(ctx, db, s)
		})
	},
}

var contestStatusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"score"},
	Short:   "Show the selected contest, its status and score",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		s, _, err := openSession(ctx, db)
		if err != nil {
			return err
		}
		printSession(s)
		verbose, _ := cmd.Flags().GetBool("multipliers")
		if verbose {
			for _, m := range s.Multipliers() {
				fmt.Println("  " + m)
			}
		}
		return nil
	},
}

var contestToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Switch between active and paused; clears a finished contest",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		return withWriteLock(cmd, func() error {
			s, _, err := openSession(ctx, db)
			if err != nil {
				return err
			}
			before := s.Status()
			after := s.ToggleStatus()
			if before == after {
				fmt.Printf("Contest is %s, nothing to toggle.\n", after)
			}
			printSession(s)
			return closeSession(ctx, db, s)
		})
	},
}

var contestClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the contest selection",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		return withWriteLock(cmd, func() error {
			return db.SaveSessionState(cmd.Context(), session.State{NextSerial: 1})
		})
	},
}

var contestCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Preview what a QSO would score without logging it",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		s, book, err := openSession(ctx, db)
		if err != nil {
			return err
		}
		rec, err := qsoFromFlags(cmd, s)
		if err != nil {
			return err
		}
		idx := book.Append(0, rec)
		r, err := s.CheckQSO(idx)
		if err != nil {
			return err
		}

		newMult := ""
		if r.Multiplier != 0 {
			newMult = " (new multiplier " + r.MultiplierKey + ")"
		}
		fmt.Printf("QSO points: %d%s\n", r.QSOPoints, newMult)
		printTotals("Score if logged", s.Preview())
		return nil
	},
}

func printSession(s *session.Session) {
	if s.ContestID() == "" {
		fmt.Println("No contest selected.")
		return
	}
	fmt.Printf("Contest: %s %s\n", s.ContestID(), s.Instance())
	if def := s.Definition(); def != nil {
		fmt.Printf("Window:  %s - %s\n", def.Timeframe.Start.Format(time.RFC3339), def.Timeframe.Finish.Format(time.RFC3339))
		fmt.Printf("Scoring: %s\n", def.AlgorithmID)
	}
	fmt.Printf("Status:  %s\n", s.Status())
	if err := s.BindError(); err != nil {
		fmt.Printf("Scoring disabled: %s\n", strings.ReplaceAll(err.Error(), "\n", "; "))
		return
	}
	if s.UsesSerialNumber() {
		fmt.Printf("Serial:  %s\n", s.Serial())
	}
	fmt.Printf("QSOs:    %d\n", len(s.QSOs()))
	printTotals("Score", s.Committed())
}

func printTotals(label string, t session.Totals) {
	fmt.Printf("%s: %d points x %d multipliers = %d\n", label, t.QSOPoints, t.Multiplier, t.Total)
}

// qsoFromFlags builds a record from the QSO flags shared by `contest check`
// and `log add`. With a scorable contest selected the received exchange is
// parsed; the contest id is only stamped while the contest is active and the
// QSO time falls inside its window.
func qsoFromFlags(cmd *cobra.Command, s *session.Session) (logbook.Fields, error) {
	rec := logbook.Fields{}
	for flag, field := range map[string]string{
		"call": logbook.FieldCall,
		"band": logbook.FieldBand,
		"mode": logbook.FieldMode,
		"dxcc": logbook.FieldDXCC,
		"ituz": logbook.FieldITUZ,
		"cont": logbook.FieldCont,
		"rst":  logbook.FieldRSTSent,
	} {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			rec.SetItem(field, strings.ToUpper(v))
		}
	}
	if band := rec.Item(logbook.FieldBand); band != "" {
		rec.SetItem(logbook.FieldBand, strings.ToLower(band))
	}

	at := time.Now().UTC()
	if raw, _ := cmd.Flags().GetString("time"); raw != "" {
		t, err := parseUTC(raw)
		if err != nil {
			return nil, err
		}
		at = t
	}
	logbook.SetTimestamp(rec, at)

	if s.ContestID() == "" || s.BindError() != nil {
		return rec, nil
	}
	if exch, _ := cmd.Flags().GetString("exchange"); exch != "" {
		if err := s.ParseExchange(rec, exch); err != nil {
			return nil, err
		}
	}
	if !s.Claim(rec) && s.Status() == session.Active {
		utils.Log.WithField("time", at.Format(time.RFC3339)).Warn("QSO is outside the contest window, it will not be scored")
	}
	return rec, nil
}

func addQSOFlags(cmd *cobra.Command) {
	cmd.Flags().String("call", "", "Callsign worked")
	cmd.Flags().String("band", "", "ADIF band, e.g. 20m")
	cmd.Flags().String("mode", "CW", "ADIF mode")
	cmd.Flags().String("dxcc", "", "DXCC entity number of the station worked")
	cmd.Flags().String("ituz", "", "ITU zone of the station worked")
	cmd.Flags().String("cont", "", "Continent of the station worked")
	cmd.Flags().String("rst", "", "Report sent (default depends on mode)")
	cmd.Flags().StringP("exchange", "x", "", "Exchange received, space separated")
	cmd.Flags().String("time", "", "QSO time, UTC (default now)")
}

func init() {
	rootCmd.AddCommand(contestCmd)
	contestCmd.AddCommand(contestSelectCmd)
	contestCmd.AddCommand(contestStatusCmd)
	contestCmd.AddCommand(contestToggleCmd)
	contestCmd.AddCommand(contestClearCmd)
	contestCmd.AddCommand(contestCheckCmd)

	contestStatusCmd.Flags().BoolP("multipliers", "m", false, "List the multipliers worked")
	addQSOFlags(contestCheckCmd)
}
