package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spolu/distinct"
	"github.com/spolu/distinct/lib/db"
	"github.com/spolu/distinct/lib/errors"
	"github.com/spolu/distinct/lib/out"
	"github.com/spolu/distinct/memory"
	"github.com/spolu/distinct/sqlstore"
)

var (
	// Check command flags
	checkDSN   string
	checkTable string
	checkKeys  []string
	checkAttrs []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "distinct",
		Short: "Uniqueness checks over a database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(createCheckCommand())

	if err := rootCmd.Execute(); err != nil {
		out.Errof("[Error] %s\n", err.Error())
		os.Exit(1)
	}
}

// createCheckCommand creates the check command.
func createCheckCommand() *cobra.Command {
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check prospective attribute values for uniqueness",
		Long: `Check whether a prospective row would collide with existing rows of a
table on the provided attributes, without writing anything.`,
		RunE: checkCommand,
	}

	checkCmd.Flags().StringVar(&checkDSN, "db",
		"", "DSN of the database to check against (sqlite3://..., postgres://...)")
	checkCmd.Flags().StringVar(&checkTable, "table",
		"", "Table to check against")
	checkCmd.Flags().StringSliceVar(&checkKeys, "key",
		[]string{"id"}, "Primary key column (repeatable)")
	checkCmd.Flags().StringSliceVar(&checkAttrs, "attr",
		nil, "Attribute to check, as column=value (repeatable)")
	checkCmd.MarkFlagRequired("db")
	checkCmd.MarkFlagRequired("table")
	checkCmd.MarkFlagRequired("attr")

	return checkCmd
}

func checkCommand(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	checkDB, err := db.NewDBForDSN(ctx, checkDSN, "")
	if err != nil {
		return errors.Trace(err)
	}
	ctx = db.WithDB(ctx, checkDB)

	typ := distinct.NewType(checkTable, checkKeys...)

	fields := map[string]interface{}{}
	attributes := []distinct.Attribute{}
	for _, attr := range checkAttrs {
		c := strings.SplitN(attr, "=", 2)
		if len(c) != 2 {
			return errors.Newf(
				"invalid attribute %q, expected column=value", attr)
		}
		fields[c[0]] = c[1]
		attributes = append(attributes, distinct.Attribute{Source: c[0]})
	}
	candidate := memory.NewRecord(typ, fields)

	checker := &distinct.Checker{
		Store:      sqlstore.New(),
		TargetType: typ,
		Attributes: attributes,
	}

	decision, err := checker.Check(ctx, candidate)
	if err != nil {
		return errors.Trace(err)
	}

	if decision.Valid() {
		out.Boldf("Unique: ")
		out.Normf("no existing %s row matches ", checkTable)
		out.Valuf("%s\n", strings.Join(checkAttrs, " "))
	} else {
		out.Boldf("Taken:\n")
		for _, fieldError := range decision.Errors {
			out.Normf("  %s: ", fieldError.Attribute)
			out.Errof("%s\n", fieldError.Message)
		}
	}

	fmt.Println()
	return nil
}
