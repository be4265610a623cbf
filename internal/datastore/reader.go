// Marquee - Movie Recommendation Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver

	"github.com/tomtom215/marquee/internal/config"
)

// Column name candidates, matched case-insensitively in order.
var (
	userColumns  = []string{"user_id", "userid", "user"}
	itemColumns  = []string{"item_id", "movie_id", "movieid", "itemid", "item", "movie"}
	scoreColumns = []string{"score", "rating", "estimated_rating", "prediction", "predicted_rating"}
	genreColumns = []string{"genres", "genre"}
	orderColumns = []string{"popularity", "score", "count", "num_ratings", "rating_count"}
)

// reader reads columnar table files through an in-memory DuckDB connection.
type reader struct {
	db *sql.DB
}

func openReader(ctx context.Context, cfg *config.TablesConfig, conns int) (*reader, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	db.SetMaxOpenConns(conns)

	if cfg.DuckDBThreads > 0 {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("SET GLOBAL threads = %d", cfg.DuckDBThreads)); err != nil {
			closeQuietly(db)
			return nil, fmt.Errorf("failed to set duckdb threads: %w", err)
		}
	}
	if cfg.DuckDBMaxMemory != "" {
		if _, err := db.ExecContext(ctx, "SET GLOBAL max_memory = "+quoteLiteral(cfg.DuckDBMaxMemory)); err != nil {
			closeQuietly(db)
			return nil, fmt.Errorf("failed to set duckdb max_memory: %w", err)
		}
	}
	return &reader{db: db}, nil
}

func (r *reader) Close() error {
	return r.db.Close()
}

// sourceExpr returns the DuckDB table function reading path, chosen by extension.
func sourceExpr(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return "read_parquet(" + quoteLiteral(path) + ")", nil
	case ".csv", ".tsv", ".txt":
		return "read_csv_auto(" + quoteLiteral(path) + ", header = true)", nil
	default:
		return "", fmt.Errorf("unsupported table format %q", filepath.Ext(path))
	}
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

type column struct {
	name   string
	dbType string
}

// columns returns the schema of a table source.
func (r *reader) columns(ctx context.Context, src string) ([]column, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT * FROM "+src+" LIMIT 0")
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rows)

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	cols := make([]column, len(types))
	for i, ct := range types {
		cols[i] = column{name: ct.Name(), dbType: strings.ToUpper(ct.DatabaseTypeName())}
	}
	return cols, rows.Err()
}

// resolveColumn picks the override when set, otherwise the first candidate present.
func resolveColumn(cols []column, override string, candidates []string) (string, error) {
	if override != "" {
		for _, c := range cols {
			if strings.EqualFold(c.name, override) {
				return c.name, nil
			}
		}
		return "", fmt.Errorf("%w: %s", ErrMissingColumn, override)
	}
	for _, want := range candidates {
		for _, c := range cols {
			if strings.EqualFold(c.name, want) {
				return c.name, nil
			}
		}
	}
	return "", fmt.Errorf("%w: one of %s", ErrMissingColumn, strings.Join(candidates, ", "))
}

func isNumericType(dbType string) bool {
	for _, prefix := range []string{
		"TINYINT", "SMALLINT", "INTEGER", "BIGINT", "HUGEINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT",
		"FLOAT", "DOUBLE", "DECIMAL", "BOOLEAN",
	} {
		if strings.HasPrefix(dbType, prefix) {
			return true
		}
	}
	return false
}

// readPredictions fills a table with (user, item, score) rows.
func (r *reader) readPredictions(ctx context.Context, table *PredictionTable, src string, spec TableSpec) error {
	cols, err := r.columns(ctx, src)
	if err != nil {
		return err
	}
	userCol, err := resolveColumn(cols, spec.UserColumn, userColumns)
	if err != nil {
		return err
	}
	itemCol, err := resolveColumn(cols, spec.ItemColumn, itemColumns)
	if err != nil {
		return err
	}
	scoreCol, err := resolveColumn(cols, spec.ScoreColumn, scoreColumns)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT %s, %s, TRY_CAST(%s AS DOUBLE) FROM %s",
		quoteIdent(userCol), quoteIdent(itemCol), quoteIdent(scoreCol), src)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer closeQuietly(rows)

	for rows.Next() {
		var rawUser, rawItem any
		var score sql.NullFloat64
		if err := rows.Scan(&rawUser, &rawItem, &score); err != nil {
			return err
		}
		userID, uerr := CanonicalID(rawUser)
		itemID, ierr := CanonicalID(rawItem)
		if uerr != nil || ierr != nil || !score.Valid {
			table.skipped++
			continue
		}
		table.Add(userID, itemID, score.Float64)
	}
	return rows.Err()
}

// readFeatures builds the item feature table. Explicit feature columns win,
// then a pipe-separated genres column (one-hot over the sorted genre
// vocabulary), then every numeric column other than the item column.
func (r *reader) readFeatures(ctx context.Context, src string, spec TableSpec) (*FeatureTable, error) {
	cols, err := r.columns(ctx, src)
	if err != nil {
		return nil, err
	}
	itemCol, err := resolveColumn(cols, spec.ItemColumn, itemColumns)
	if err != nil {
		return nil, err
	}

	if len(spec.FeatureColumns) == 0 {
		if genreCol, gerr := resolveColumn(cols, spec.GenresColumn, genreColumns); gerr == nil {
			return r.readGenres(ctx, src, itemCol, genreCol)
		} else if spec.GenresColumn != "" {
			return nil, gerr
		}
	}

	var featureCols []string
	if len(spec.FeatureColumns) > 0 {
		for _, name := range spec.FeatureColumns {
			resolved, err := resolveColumn(cols, name, nil)
			if err != nil {
				return nil, err
			}
			featureCols = append(featureCols, resolved)
		}
	} else {
		for _, c := range cols {
			if c.name != itemCol && isNumericType(c.dbType) {
				featureCols = append(featureCols, c.name)
			}
		}
	}
	if len(featureCols) == 0 {
		return nil, fmt.Errorf("%w: no numeric feature columns", ErrMissingColumn)
	}
	return r.readNumericFeatures(ctx, src, itemCol, featureCols)
}

func (r *reader) readGenres(ctx context.Context, src, itemCol, genreCol string) (*FeatureTable, error) {
	query := fmt.Sprintf("SELECT %s, CAST(%s AS VARCHAR) FROM %s", quoteIdent(itemCol), quoteIdent(genreCol), src)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rows)

	type itemGenres struct {
		id     string
		genres []string
	}
	var items []itemGenres
	vocab := make(map[string]struct{})
	for rows.Next() {
		var rawItem any
		var genres sql.NullString
		if err := rows.Scan(&rawItem, &genres); err != nil {
			return nil, err
		}
		itemID, err := CanonicalID(rawItem)
		if err != nil {
			continue
		}
		labels := ParseGenres(genres.String)
		for _, g := range labels {
			vocab[g] = struct{}{}
		}
		items = append(items, itemGenres{id: itemID, genres: labels})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(vocab))
	for g := range vocab {
		names = append(names, g)
	}
	sort.Strings(names)
	position := make(map[string]int, len(names))
	for i, g := range names {
		position[g] = i
	}

	table := NewFeatureTable(names)
	for _, it := range items {
		vec := make([]float64, len(names))
		for _, g := range it.genres {
			vec[position[g]] = 1
		}
		if err := table.Add(it.id, vec); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// noGenre is the MovieLens placeholder for untagged movies.
const noGenre = "(no genres listed)"

// ParseGenres splits a MovieLens genre string such as "Action|Comedy".
func ParseGenres(s string) []string {
	var out []string
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" || part == noGenre {
			continue
		}
		out = append(out, part)
	}
	return out
}

func (r *reader) readNumericFeatures(ctx context.Context, src, itemCol string, featureCols []string) (*FeatureTable, error) {
	selects := make([]string, 0, len(featureCols)+1)
	selects = append(selects, quoteIdent(itemCol))
	for _, c := range featureCols {
		selects = append(selects, "TRY_CAST("+quoteIdent(c)+" AS DOUBLE)")
	}
	rows, err := r.db.QueryContext(ctx, "SELECT "+strings.Join(selects, ", ")+" FROM "+src)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rows)

	table := NewFeatureTable(featureCols)
	values := make([]sql.NullFloat64, len(featureCols))
	dest := make([]any, len(featureCols)+1)
	var rawItem any
	dest[0] = &rawItem
	for i := range values {
		dest[i+1] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		itemID, err := CanonicalID(rawItem)
		if err != nil {
			continue
		}
		vec := make([]float64, len(values))
		for i, v := range values {
			if v.Valid {
				vec[i] = v.Float64
			}
		}
		if err := table.Add(itemID, vec); err != nil {
			return nil, err
		}
	}
	return table, rows.Err()
}

// readPopularity reads ranked item IDs. When an order column exists the items
// are sorted by it descending, keeping file order for ties.
func (r *reader) readPopularity(ctx context.Context, src string, spec TableSpec, limit int) (*PopularityTable, error) {
	cols, err := r.columns(ctx, src)
	if err != nil {
		return nil, err
	}
	itemCol, err := resolveColumn(cols, spec.ItemColumn, itemColumns)
	if err != nil {
		return nil, err
	}
	orderCol, oerr := resolveColumn(cols, spec.OrderColumn, orderColumns)
	if oerr != nil && spec.OrderColumn != "" {
		return nil, oerr
	}

	query := fmt.Sprintf("SELECT %s FROM %s", quoteIdent(itemCol), src)
	if orderCol != "" {
		query = fmt.Sprintf("SELECT %s, TRY_CAST(%s AS DOUBLE) FROM %s", quoteIdent(itemCol), quoteIdent(orderCol), src)
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rows)

	type ranked struct {
		id    string
		score sql.NullFloat64
	}
	var items []ranked
	for rows.Next() {
		var rawItem any
		var score sql.NullFloat64
		if orderCol != "" {
			err = rows.Scan(&rawItem, &score)
		} else {
			err = rows.Scan(&rawItem)
		}
		if err != nil {
			return nil, err
		}
		itemID, err := CanonicalID(rawItem)
		if err != nil {
			continue
		}
		items = append(items, ranked{id: itemID, score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if orderCol != "" {
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i].score, items[j].score
			if a.Valid != b.Valid {
				return a.Valid
			}
			return a.Float64 > b.Float64
		})
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.id
	}
	return NewPopularityTable(ids, limit), nil
}
