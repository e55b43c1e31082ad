// Package holiday は祝日カタログのフィルタリングとCRUD管理機能を提供する。
package holiday

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/holical/internal/model"
)

// defaultPerPage はページ指定時のデフォルトページサイズ。
const defaultPerPage = 10

// ParseFilter はクエリ文字列からHolidayFilterを構築する。
// 日付・数値・真偽値の形式不正はInvalidFilterエラーとなり、黙って無視はしない。
//
// ページネーションは skip/limit と page/per_page の2方式を受け付け、
// どちらも内部では単一のoffset/limitに正規化する。両方が指定された場合は
// skip/limitを優先する。
func ParseFilter(values url.Values) (model.HolidayFilter, error) {
	filter := model.HolidayFilter{}

	filter.Name = values.Get("name")
	filter.Country = strings.ToUpper(values.Get("country"))
	filter.State = strings.ToUpper(values.Get("state"))

	if states := values.Get("states"); states != "" {
		for _, s := range strings.Split(states, ",") {
			s = strings.ToUpper(strings.TrimSpace(s))
			if s != "" {
				filter.States = append(filter.States, s)
			}
		}
	}

	var err error
	if filter.Federal, err = parseOptionalBool(values, "federal"); err != nil {
		return filter, err
	}
	if filter.IsCustom, err = parseOptionalBool(values, "is_custom"); err != nil {
		return filter, err
	}
	if filter.StartDate, err = parseOptionalDate(values, "start_date"); err != nil {
		return filter, err
	}
	if filter.EndDate, err = parseOptionalDate(values, "end_date"); err != nil {
		return filter, err
	}
	if filter.Year, err = parseOptionalInt(values, "year"); err != nil {
		return filter, err
	}
	if filter.Month, err = parseOptionalInt(values, "month"); err != nil {
		return filter, err
	}
	if filter.Month < 0 || filter.Month > 12 {
		return filter, model.NewInvalidFilterError(fmt.Sprintf("month は 1〜12 の範囲で指定してください: %d", filter.Month))
	}

	if orderBy := values.Get("order_by"); orderBy != "" {
		for _, key := range strings.Split(orderBy, ",") {
			key = strings.TrimSpace(key)
			if key != "" {
				filter.OrderBy = append(filter.OrderBy, key)
			}
		}
	}

	if err := parsePagination(values, &filter); err != nil {
		return filter, err
	}

	return filter, nil
}

// parsePagination はskip/limitとpage/per_pageを単一のoffset/limitに正規化する。
func parsePagination(values url.Values, filter *model.HolidayFilter) error {
	skip, err := parseOptionalInt(values, "skip")
	if err != nil {
		return err
	}
	limit, err := parseOptionalInt(values, "limit")
	if err != nil {
		return err
	}
	page, err := parseOptionalInt(values, "page")
	if err != nil {
		return err
	}
	perPage, err := parseOptionalInt(values, "per_page")
	if err != nil {
		return err
	}

	// skip/limit方式が指定されていればそちらを採用する
	if values.Get("skip") != "" || values.Get("limit") != "" {
		filter.Offset = skip
		filter.Limit = limit
		return nil
	}

	if page > 0 {
		if perPage <= 0 {
			perPage = defaultPerPage
		}
		filter.Offset = (page - 1) * perPage
		filter.Limit = perPage
	}

	return nil
}

func parseOptionalBool(values url.Values, key string) (*bool, error) {
	v := values.Get(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, model.NewInvalidFilterError(fmt.Sprintf("%s は真偽値で指定してください: %q", key, v))
	}
	return &b, nil
}

func parseOptionalInt(values url.Values, key string) (int, error) {
	v := values.Get(key)
	if v == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, model.NewInvalidFilterError(fmt.Sprintf("%s は整数で指定してください: %q", key, v))
	}
	if i < 0 {
		return 0, model.NewInvalidFilterError(fmt.Sprintf("%s は0以上で指定してください: %d", key, i))
	}
	return i, nil
}

func parseOptionalDate(values url.Values, key string) (*time.Time, error) {
	v := values.Get(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(model.DateFormat, v)
	if err != nil {
		return nil, model.NewInvalidFilterError(fmt.Sprintf("%s は YYYY-MM-DD 形式で指定してください: %q", key, v))
	}
	return &t, nil
}
