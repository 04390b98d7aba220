package convert

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ashwinyue/bookqa/internal/model"
	_ "github.com/duckdb/duckdb-go/v2"
)

// WriteParquet 通过内存 DuckDB 写出 Parquet 产物，列与 CSV 一致，
// 行序按接受顺序（idx 排序后 COPY）。
func WriteParquet(ctx context.Context, ds *model.Dataset, path string) error {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return fmt.Errorf("failed to open duckdb: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx,
		`CREATE TABLE qa_pairs (idx INTEGER, question VARCHAR, answer VARCHAR, source VARCHAR)`); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO qa_pairs VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	for i, p := range ds.Pairs {
		if _, err := stmt.ExecContext(ctx, i, p.Question, p.Answer, p.Source); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rows: %w", err)
	}

	copySQL := fmt.Sprintf(
		`COPY (SELECT question, answer, source FROM qa_pairs ORDER BY idx) TO '%s' (FORMAT PARQUET)`,
		escapeSQLString(path))
	if _, err := db.ExecContext(ctx, copySQL); err != nil {
		return fmt.Errorf("failed to write parquet: %w", err)
	}

	return nil
}

// ReadParquet 读回 Parquet 产物，行序与写出时一致
func ReadParquet(ctx context.Context, path string) ([]model.QAPair, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	defer db.Close()

	query := fmt.Sprintf(`SELECT question, answer, source FROM read_parquet('%s')`,
		escapeSQLString(path))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet: %w", err)
	}
	defer rows.Close()

	var pairs []model.QAPair
	for rows.Next() {
		var p model.QAPair
		if err := rows.Scan(&p.Question, &p.Answer, &p.Source); err != nil {
			return nil, fmt.Errorf("failed to scan parquet row: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate parquet rows: %w", err)
	}
	return pairs, nil
}

// escapeSQLString DuckDB 字符串字面量转义
func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
