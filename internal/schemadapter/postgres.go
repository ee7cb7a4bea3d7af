package schemadapter

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"loomui/internal/datactx"
)

// TableMapping maps one data source onto a Postgres table.
type TableMapping struct {
	Table    string
	Columns  []string
	IDColumn string
	// InitialLimit caps the rows loaded at context initialization.
	InitialLimit int
}

// Postgres serves sources from a Postgres database via pgx.
type Postgres struct {
	db      *sql.DB
	sources map[string]TableMapping
	user    datactx.Item
}

// OpenPostgres connects and registers the given source mappings.
func OpenPostgres(dsn string, sources map[string]TableMapping, user datactx.Item) (*Postgres, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &Postgres{db: db, sources: sources, user: user}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) InitializeDataContext(ctx context.Context) (datactx.Context, error) {
	dc := datactx.New(p.user)
	names := make([]string, 0, len(p.sources))
	for name := range p.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m := p.sources[name]
		rows, err := p.Query(ctx, name, Query{Limit: m.InitialLimit})
		if err != nil {
			return datactx.Context{}, err
		}
		dc = dc.WithEntry(name, datactx.Entry{Schema: schemaFor(m), Data: rows})
	}
	return dc, nil
}

func (p *Postgres) Query(ctx context.Context, source string, q Query) ([]datactx.Item, error) {
	m, ok := p.sources[source]
	if !ok {
		return nil, fmt.Errorf("unknown data source %q", source)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(m.Columns, ", "), m.Table)
	var args []any
	if len(q.Filter) > 0 {
		cols := make([]string, 0, len(q.Filter))
		for col := range q.Filter {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		conds := make([]string, 0, len(cols))
		for _, col := range cols {
			args = append(args, q.Filter[col])
			conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
		}
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	fmt.Fprintf(&sb, " ORDER BY %s", m.IDColumn)
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}

	rows, err := p.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", source, err)
	}
	defer rows.Close()

	var out []datactx.Item
	for rows.Next() {
		vals := make([]any, len(m.Columns))
		ptrs := make([]any, len(m.Columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", source, err)
		}
		item := make(datactx.Item, len(m.Columns))
		for i, col := range m.Columns {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			if col == m.IDColumn {
				item["id"] = fmt.Sprintf("%v", v)
			}
			item[col] = v
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func schemaFor(m TableMapping) datactx.SchemaDescriptor {
	fields := make([]datactx.FieldDescriptor, 0, len(m.Columns))
	for _, col := range m.Columns {
		fields = append(fields, datactx.FieldDescriptor{Name: col, Kind: "string"})
	}
	return datactx.SchemaDescriptor{Fields: fields}
}
