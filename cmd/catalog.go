package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/contestlog/internal/utils"
	"github.com/sw33tLie/contestlog/pkg/contest"
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the contest catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contest definitions in the order they were added",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		c := loadCatalog(cmd.Context(), db)
		if c.Len() == 0 {
			fmt.Println("The contest catalog is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "CONTEST\tINSTANCE\tALGORITHM\tSTART\tFINISH\t")
		for i := 0; i < c.Len(); i++ {
			e, _ := c.EntryAt(i)
			tf := e.Definition.Timeframe
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", e.ContestID, e.Instance, e.Definition.AlgorithmID,
				tf.Start.Format(time.RFC3339), tf.Finish.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var catalogAddCmd = &cobra.Command{
	Use:   "add <contest-id> <instance>",
	Short: "Add or update a contest definition",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		algorithm, _ := cmd.Flags().GetString("algorithm")
		startRaw, _ := cmd.Flags().GetString("start")
		finishRaw, _ := cmd.Flags().GetString("finish")

		start, err := parseUTC(startRaw)
		if err != nil {
			return err
		}
		finish, err := parseUTC(finishRaw)
		if err != nil {
			return err
		}
		def := contest.Definition{
			AlgorithmID: algorithm,
			Timeframe:   contest.Timeframe{Start: start, Finish: finish},
		}
		if err := def.Validate(); err != nil {
			return err
		}
		if _, err := registry.Lookup(algorithm); err != nil {
			utils.Log.WithError(err).Warn("Contest will not be scored until the algorithm exists")
		}

		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		return withWriteLock(cmd, func() error {
			c := loadCatalog(cmd.Context(), db)
			stored, ok := c.Get(args[0], args[1], true)
			if !ok {
				return fmt.Errorf("instance index must not be empty")
			}
			*stored = def
			if err := db.SaveCatalog(cmd.Context(), c); err != nil {
				return err
			}
			utils.Log.WithFields(logrus.Fields{"contest": args[0], "instance": args[1]}).Info("Contest saved")
			return nil
		})
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Merge contest definitions from a JSON catalog file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("catalog.path")
		if len(args) == 1 {
			path = args[0]
		}

		imported, err := contest.Load(path)
		if err != nil {
			utils.Log.WithError(err).Warn("Catalog file could not be read completely")
		}

		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		return withWriteLock(cmd, func() error {
			c := loadCatalog(cmd.Context(), db)
			for i := 0; i < imported.Len(); i++ {
				e, _ := imported.EntryAt(i)
				stored, _ := c.Get(e.ContestID, e.Instance, true)
				*stored = *e.Definition
			}
			if err := db.SaveCatalog(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Printf("Imported %d contest definitions from %s\n", imported.Len(), path)
			return nil
		})
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the contest catalog to a JSON file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("catalog.path")
		if len(args) == 1 {
			path = args[0]
		}

		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		c := loadCatalog(cmd.Context(), db)
		if err := c.Save(path); err != nil {
			return err
		}
		fmt.Printf("Exported %d contest definitions to %s\n", c.Len(), path)
		return nil
	},
}

var algorithmsCmd = &cobra.Command{
	Use:   "algorithms",
	Short: "List the available scoring algorithms",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ALGORITHM\tRECEIVE\tSEND\tSERIAL\t")
		for _, id := range registry.IDs() {
			a, err := registry.Lookup(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%v\t%v\t%t\t\n", id, a.ReceiveFields(), a.SendFields(), a.UsesSerialNumber())
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(algorithmsCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogAddCmd)
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogExportCmd)

	catalogAddCmd.Flags().StringP("algorithm", "a", "Basic", "Scoring algorithm id (see `contestlog algorithms`)")
	catalogAddCmd.Flags().String("start", "", "Contest start, UTC (RFC3339 or YYYY-MM-DD HH:MM)")
	catalogAddCmd.Flags().String("finish", "", "Contest finish, UTC (RFC3339 or YYYY-MM-DD HH:MM)")
	_ = catalogAddCmd.MarkFlagRequired("start")
	_ = catalogAddCmd.MarkFlagRequired("finish")
}
