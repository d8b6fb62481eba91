package filterexpr

import (
	"fmt"
	"strings"
	"time"
)

// filterMsg adapts a raw (filter, order_by) pair to the Msg interface
// Bind expects, the same shape request DTOs built from a generated API
// schema would satisfy natively.
type filterMsg struct {
	filter  string
	orderBy string
}

func (m filterMsg) GetFilter() string  { return m.filter }
func (m filterMsg) GetOrderBy() string { return m.orderBy }

// DictionaryFilterParams is populated by Bind from a CEL filter/order_by
// pair over the dictionary administrative query surface.
type DictionaryFilterParams struct {
	Identifier string
	Name       string
	NamePrefix string
	Keywords   []string

	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

var dictionarySchema = ResourceSchema{
	Filter: map[string]FilterField{
		"identifier": {Kind: KindString, Ops: map[Op]string{OpEQ: "Identifier"}},
		"name":       {Kind: KindString, Ops: map[Op]string{OpEQ: "Name", OpSW: "NamePrefix"}},
		"keyword":    {Kind: KindString, Ops: map[Op]string{OpIN: "Keywords"}},
	},
	Order: OrderSchema{
		DefaultPrimary: "id",
		FallbackKey:    "id",
		Fields: map[string]OrderField{
			"id":         {Expr: "id"},
			"identifier": {Expr: "identifier"},
			"name":       {Expr: "json_extract(json, '$.name')"},
		},
	},
}

// BindDictionaryFilter parses filter/orderBy against the dictionary
// schema and renders a "WHERE ... ORDER BY ..." SQL clause plus its
// bound arguments, ready to append after a "SELECT ... FROM dictionary".
func BindDictionaryFilter(filter, orderBy string) (string, []any, error) {
	var p DictionaryFilterParams
	if err := Bind(filterMsg{filter: filter, orderBy: orderBy}, &p, dictionarySchema); err != nil {
		return "", nil, err
	}

	var where []string
	var args []any
	if p.Identifier != "" {
		where = append(where, "identifier = ?")
		args = append(args, p.Identifier)
	}
	if p.Name != "" {
		where = append(where, "json_extract(json, '$.name') = ?")
		args = append(args, p.Name)
	}
	if p.NamePrefix != "" {
		where = append(where, "json_extract(json, '$.name') LIKE ? ESCAPE '\\'")
		args = append(args, escapeLike(p.NamePrefix)+"%")
	}
	if len(p.Keywords) > 0 {
		for _, kw := range p.Keywords {
			where = append(where, "json_extract(json, '$.keywords') LIKE ? ESCAPE '\\'")
			args = append(args, "%"+escapeLike(kw)+"%")
		}
	}

	clause := renderClause(where, dictionarySchema.Order.Fields[p.PrimaryKey].Expr, p.PrimaryDesc,
		dictionarySchema.Order.Fields[p.SecondaryKey].Expr, p.SecondaryDesc, 0, 0)
	return clause, args, nil
}

// GeowordFilterParams is populated by Bind from a CEL filter/order_by
// pair over the geoword administrative query surface. dictionary_id and
// ne_class filter the indexed columns of those names (the JSON payload
// stays the canonical store; these two columns exist so this query
// surface does not require a full table scan per lookup); valid_from and
// valid_to bounds are read from the JSON payload with json_extract.
type GeowordFilterParams struct {
	DictionaryID  int64
	NEClass       string
	NEClassPrefix string
	ValidFrom     time.Time
	ValidTo       time.Time

	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

var geowordSchema = ResourceSchema{
	Filter: map[string]FilterField{
		"dictionary_id": {Kind: KindNumber, Ops: map[Op]string{OpEQ: "DictionaryID"}},
		"ne_class":      {Kind: KindString, Ops: map[Op]string{OpEQ: "NEClass", OpSW: "NEClassPrefix"}},
		"valid_from":    {Kind: KindTimestamp, Ops: map[Op]string{OpGTE: "ValidFrom"}},
		"valid_to":      {Kind: KindTimestamp, Ops: map[Op]string{OpLTE: "ValidTo"}},
	},
	Order: OrderSchema{
		DefaultPrimary: "geonlp_id",
		FallbackKey:    "geonlp_id",
		Fields: map[string]OrderField{
			"geonlp_id":     {Expr: "geonlp_id"},
			"dictionary_id": {Expr: "dictionary_id"},
			"ne_class":      {Expr: "ne_class"},
		},
	},
}

// BindGeowordFilter parses filter/orderBy against the geoword schema and
// renders a "WHERE ... ORDER BY ... LIMIT ... OFFSET ..." SQL clause
// plus bound arguments, ready to append after "SELECT ... FROM geoword".
func BindGeowordFilter(filter, orderBy string, limit, offset int) (string, []any, error) {
	var p GeowordFilterParams
	if err := Bind(filterMsg{filter: filter, orderBy: orderBy}, &p, geowordSchema); err != nil {
		return "", nil, err
	}

	var where []string
	var args []any
	if p.DictionaryID != 0 {
		where = append(where, "dictionary_id = ?")
		args = append(args, p.DictionaryID)
	}
	if p.NEClass != "" {
		where = append(where, "ne_class = ?")
		args = append(args, p.NEClass)
	}
	if p.NEClassPrefix != "" {
		where = append(where, "ne_class LIKE ? ESCAPE '\\'")
		args = append(args, escapeLike(p.NEClassPrefix)+"%")
	}
	if !p.ValidFrom.IsZero() {
		where = append(where, "json_extract(json, '$.valid_from') >= ?")
		args = append(args, p.ValidFrom.Format("2006-01-02"))
	}
	if !p.ValidTo.IsZero() {
		where = append(where, "json_extract(json, '$.valid_to') <= ?")
		args = append(args, p.ValidTo.Format("2006-01-02"))
	}

	clause := renderClause(where, geowordSchema.Order.Fields[p.PrimaryKey].Expr, p.PrimaryDesc,
		geowordSchema.Order.Fields[p.SecondaryKey].Expr, p.SecondaryDesc, limit, offset)
	return clause, args, nil
}

func renderClause(where []string, primaryExpr string, primaryDesc bool, secondaryExpr string, secondaryDesc bool, limit, offset int) string {
	var b strings.Builder
	if len(where) > 0 {
		b.WriteString("WHERE ")
		b.WriteString(strings.Join(where, " AND "))
		b.WriteString(" ")
	}
	b.WriteString("ORDER BY ")
	b.WriteString(orderExpr(primaryExpr, primaryDesc))
	if secondaryExpr != "" && secondaryExpr != primaryExpr {
		b.WriteString(", ")
		b.WriteString(orderExpr(secondaryExpr, secondaryDesc))
	}
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
		if offset > 0 {
			fmt.Fprintf(&b, " OFFSET %d", offset)
		}
	}
	return b.String()
}

func orderExpr(expr string, desc bool) string {
	if desc {
		return expr + " DESC"
	}
	return expr + " ASC"
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
