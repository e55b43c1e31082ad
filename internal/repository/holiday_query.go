package repository

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hitoshi/holical/internal/model"
)

// sortColumns はorder_byで受け付けるフィールド名から列名への明示的な対応表。
// 動的なフィールド解決は行わず、ここに無い名前は黙って無視する。
var sortColumns = map[string]string{
	"id":        "id",
	"name":      "name",
	"date":      "date",
	"country":   "country",
	"state":     "state",
	"federal":   "federal",
	"is_custom": "is_custom",
}

// buildHolidayListQuery はHolidayFilterからSELECT文とバインド引数を構築する。
// 有効な述語はすべてANDで合成され、日付範囲とyear/month抽出は独立に評価される。
func buildHolidayListQuery(filter model.HolidayFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	appendCond := func(format string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(format, argIndex))
		args = append(args, value)
		argIndex++
	}

	if filter.Name != "" {
		appendCond("name ILIKE $%d", "%"+filter.Name+"%")
	}
	if filter.Country != "" {
		appendCond("country = $%d", filter.Country)
	}
	if filter.State != "" {
		appendCond("state = $%d", filter.State)
	}
	if len(filter.States) > 0 {
		appendCond("state = ANY($%d)", pq.Array(filter.States))
	}
	if filter.Federal != nil {
		appendCond("federal = $%d", *filter.Federal)
	}
	if filter.IsCustom != nil {
		appendCond("is_custom = $%d", *filter.IsCustom)
	}
	if filter.StartDate != nil {
		appendCond("date >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		appendCond("date <= $%d", *filter.EndDate)
	}
	if filter.Year != 0 {
		appendCond("EXTRACT(YEAR FROM date) = $%d", filter.Year)
	}
	if filter.Month != 0 {
		appendCond("EXTRACT(MONTH FROM date) = $%d", filter.Month)
	}

	query := `SELECT ` + holidayColumns + ` FROM holidays`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY " + buildOrderClause(filter.OrderBy)

	query += fmt.Sprintf(" OFFSET $%d LIMIT $%d", argIndex, argIndex+1)
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, offset, filter.EffectiveLimit())

	return query, args
}

// buildOrderClause はソートキーのリストからORDER BY句の中身を構築する。
// "-" プレフィックスは降順を表す。未知のフィールド名は仕様上の無操作として無視し、
// 有効なキーが1つも無い場合はid昇順にフォールバックする。
func buildOrderClause(orderBy []string) string {
	var clauses []string
	for _, key := range orderBy {
		desc := false
		if strings.HasPrefix(key, "-") {
			desc = true
			key = key[1:]
		}
		column, ok := sortColumns[key]
		if !ok {
			continue
		}
		if desc {
			clauses = append(clauses, column+" DESC")
		} else {
			clauses = append(clauses, column+" ASC")
		}
	}

	if len(clauses) == 0 {
		return "id ASC"
	}
	return strings.Join(clauses, ", ")
}
