package cmd

import (
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/branch-chat/internal"
	"github.com/spf13/cobra"
)

var (
	inspectSampleRows int
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the snapshot cache",
}

// cacheInspectCmd represents the cache inspect command
var cacheInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the snapshot cache schema and contents",
	Long: `Inspect the snapshot cache database.

This command provides detailed information about:
  • Database schema (tables, columns, types)
  • Sample data from each table
  • Row counts

Examples:
  branch-chat cache inspect                 # Inspect the default cache
  branch-chat cache inspect --sample 5      # Show 5 sample rows per table`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cm, err := internal.NewCacheManager(cfg.CachePath)
		if err != nil {
			return err
		}
		defer closeCache(cm)

		return inspectDatabase(cmd.OutOrStdout(), cm.DB(), cm.Path())
	},
}

// cacheClearCmd represents the cache clear command
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached session, tree and selection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cm, err := internal.NewCacheManager(cfg.CachePath)
		if err != nil {
			return err
		}
		defer closeCache(cm)

		if err := cm.ClearCache(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", cm.Path())
		return nil
	},
}

func inspectDatabase(out io.Writer, db *sql.DB, dbPath string) error {
	tables, err := getTables(db)
	if err != nil {
		return fmt.Errorf("failed to get tables: %w", err)
	}

	if len(tables) == 0 {
		fmt.Fprintln(out, "⚠️  No tables found in database")
		return nil
	}

	fmt.Fprintf(out, "📋 Database: %s\n", dbPath)
	fmt.Fprintf(out, "📊 Found %d table(s)\n\n", len(tables))

	for _, tableName := range tables {
		if err := inspectTable(out, db, tableName); err != nil {
			fmt.Fprintf(out, "⚠️  Error inspecting table %s: %v\n", tableName, err)
			continue
		}
		fmt.Fprintln(out)
	}

	return nil
}

func getTables(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func inspectTable(out io.Writer, db *sql.DB, tableName string) error {
	fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(out, "📦 Table: %s\n", tableName)
	fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")

	var rowCount int
	if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", tableName)).Scan(&rowCount); err != nil {
		return fmt.Errorf("failed to get row count: %w", err)
	}
	fmt.Fprintf(out, "📊 Rows: %d\n\n", rowCount)

	columns, err := getTableSchema(db, tableName)
	if err != nil {
		return fmt.Errorf("failed to get schema: %w", err)
	}

	fmt.Fprintf(out, "📐 Schema:\n")
	for _, col := range columns {
		pk := ""
		if col.PrimaryKey {
			pk = " [PRIMARY KEY]"
		}
		notNull := ""
		if col.NotNull {
			notNull = " NOT NULL"
		}
		fmt.Fprintf(out, "  • %s: %s%s%s\n", col.Name, col.Type, notNull, pk)
	}
	fmt.Fprintln(out)

	if rowCount > 0 && inspectSampleRows > 0 {
		if err := showSampleData(out, db, tableName, columns, inspectSampleRows); err != nil {
			fmt.Fprintf(out, "⚠️  Error showing sample data: %v\n", err)
		}
	}

	return nil
}

type ColumnInfo struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
}

func getTableSchema(db *sql.DB, tableName string) ([]ColumnInfo, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []ColumnInfo
	for rows.Next() {
		var col ColumnInfo
		var cid int
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &defaultValue, &pk); err != nil {
			continue
		}
		col.NotNull = notNull == 1
		col.PrimaryKey = pk == 1
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func showSampleData(out io.Writer, db *sql.DB, tableName string, columns []ColumnInfo, limit int) error {
	if len(columns) == 0 {
		return nil
	}

	colNames := make([]string, len(columns))
	for i, col := range columns {
		colNames[i] = col.Name
	}

	query := fmt.Sprintf("SELECT %s FROM %s LIMIT %d", strings.Join(colNames, ", "), tableName, limit)
	rows, err := db.Query(query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	fmt.Fprintf(out, "📄 Sample Data (first %d rows):\n", limit)
	rowNum := 0
	for rows.Next() {
		rowNum++
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			fmt.Fprintf(out, "  ⚠️  Row %d: error scanning: %v\n", rowNum, err)
			continue
		}

		fmt.Fprintf(out, "\n  Row %d:\n", rowNum)
		for i, col := range columns {
			fmt.Fprintf(out, "    %s: %s\n", col.Name, sampleValue(values[i]))
		}
	}

	return rows.Err()
}

// sampleValue renders a cell on one line, cutting long tree payloads
func sampleValue(val interface{}) string {
	if val == nil {
		return "<NULL>"
	}
	var s string
	switch v := val.(type) {
	case []byte:
		s = string(v)
	default:
		s = fmt.Sprintf("%v", v)
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + "..."
	}
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheInspectCmd, cacheClearCmd)
	cacheInspectCmd.Flags().IntVar(&inspectSampleRows, "sample", 3, "Number of sample rows to show")
}
