package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints QSO counts per contest.",
	Long:  "Prints QSO counts per contest, with the first and last QSO time. QSOs logged outside a contest are listed as (none).",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := resolveDBPath(cmd)
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", dbPath)
		}

		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(cmd.Context())
		if err != nil {
			return err
		}

		if len(stats) == 0 {
			fmt.Println("No QSOs in the database to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "CONTEST\tQSOS\tFIRST\tLAST\t")

		var total int
		for _, s := range stats {
			name := s.ContestID
			if name == "" {
				name = "(none)"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t\n", name, s.QSOCount, s.First.Format("2006-01-02 15:04"), s.Last.Format("2006-01-02 15:04"))
			total += s.QSOCount
		}

		fmt.Fprintln(w, " \t \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t \t \t\n", total)

		return w.Flush()
	},
}

func init() {
	dbCmd.AddCommand(statsCmd)
}
