package storage

import "strings"

// selectQuery assembles a SELECT of title, url and ts over a relation,
// collecting clauses and their arguments in order.
type selectQuery struct {
	relation string
	clauses  []string
	args     []any
	orderBy  string
	max      int
}

func (e *Engine) from(relation string) *selectQuery {
	return &selectQuery{relation: relation}
}

func (q *selectQuery) where(clause string, args ...any) *selectQuery {
	q.clauses = append(q.clauses, clause)
	q.args = append(q.args, args...)
	return q
}

// text adds a title-or-URL substring filter unless query is empty.
func (q *selectQuery) text(query string) *selectQuery {
	if query == "" {
		return q
	}
	return q.where("(title LIKE ? OR url LIKE ?)", like(query), like(query))
}

// exclude drops rows whose URL contains any of domains.
func (q *selectQuery) exclude(domains []string) *selectQuery {
	for _, d := range domains {
		q.where("url NOT LIKE ?", like(d))
	}
	return q
}

func (q *selectQuery) order(by string) *selectQuery {
	q.orderBy = by
	return q
}

func (q *selectQuery) limit(n int) *selectQuery {
	q.max = n
	return q
}

func (q *selectQuery) build() (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT title, url, ts FROM (")
	b.WriteString(q.relation)
	b.WriteString(")")
	if len(q.clauses) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.clauses, " AND "))
	}
	if q.orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(q.orderBy)
	}
	args := q.args
	if q.max > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, q.max)
	}
	return b.String(), args
}
