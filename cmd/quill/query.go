package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quillmap/quill/internal/cli/ui"
	"github.com/quillmap/quill/internal/exec"
)

var queryParams []string

func init() {
	queryCmd.Flags().StringArrayVarP(&queryParams, "param", "p", nil,
		"statement parameter as name=value (repeatable)")
}

var queryCmd = &cobra.Command{
	Use:   "query <statement-id>",
	Short: "Run a select statement and print its rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		cfg, ld, err := loadProject()
		if err != nil {
			return err
		}
		config := ld.Configuration()

		db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		param := parseParams(queryParams)
		executor := exec.New(db, config)
		rows, err := executor.SelectList(context.Background(), id, param)
		if err != nil {
			var notFound *exec.StatementNotFoundError
			if errors.As(err, &notFound) {
				fmt.Fprint(os.Stderr, ui.FormatError(ui.ErrorOptions{
					Context:     "STATEMENT NOT FOUND: " + id,
					Suggestions: ui.SuggestIDs(id, config.StatementIDs()),
					HelpCommand: "List statements: quill validate",
				}))
			}
			return err
		}

		printRows(rows)
		return nil
	},
}

// parseParams turns repeated name=value flags into the statement input map.
// A lone value with no = binds under the name "value".
func parseParams(flags []string) interface{} {
	if len(flags) == 0 {
		return nil
	}
	params := make(map[string]interface{}, len(flags))
	for _, f := range flags {
		if name, value, ok := strings.Cut(f, "="); ok {
			params[name] = value
		} else {
			params["value"] = f
		}
	}
	return params
}

// printRows renders map-shaped rows as a table with a stable column order.
func printRows(rows []interface{}) {
	if len(rows) == 0 {
		fmt.Println("no rows")
		return
	}
	first, ok := rows[0].(map[string]interface{})
	if !ok {
		for _, row := range rows {
			fmt.Printf("%v\n", row)
		}
		return
	}
	cols := make([]string, 0, len(first))
	for col := range first {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	table := ui.NewTable(os.Stdout, cols, nil)
	for _, row := range rows {
		m, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = fmt.Sprintf("%v", m[col])
		}
		table.AddRow(cells...)
	}
	table.Render()
}
