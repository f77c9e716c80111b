package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/shopspring/decimal"
)

// DB is the table side of the hosted backend.
type DB struct {
	c *Client
}

func (d *DB) Execute(ctx context.Context, q backend.Query) (backend.Result, error) {
	t, err := d.c.schema.Validate(q)
	if err != nil {
		return backend.Result{}, err
	}
	params, err := filterParams(t, q.Filters)
	if err != nil {
		return backend.Result{}, err
	}
	token, _ := backend.AccessToken(ctx)
	path := "/rest/v1/" + t.Name

	switch q.Op {
	case backend.OpSelect:
		params.Set("select", selectList(q.Columns))
		if q.OrderBy != "" {
			dir := "desc"
			if q.Ascending {
				dir = "asc"
			}
			params.Set("order", q.OrderBy+"."+dir)
		}
		if q.Offset > 0 {
			params.Set("offset", strconv.Itoa(q.Offset))
		}
		if q.Limit > 0 {
			params.Set("limit", strconv.Itoa(q.Limit))
		}
		_, data, err := d.c.do(ctx, request{method: http.MethodGet, path: path, query: params, token: token})
		if err != nil {
			return backend.Result{}, err
		}
		rows, err := decodeRows(t, data)
		if err != nil {
			return backend.Result{}, err
		}
		return backend.Result{Rows: rows}, nil

	case backend.OpCount:
		params.Set("select", "*")
		resp, _, err := d.c.do(ctx, request{
			method: http.MethodHead,
			path:   path,
			query:  params,
			token:  token,
			header: map[string]string{"Prefer": "count=exact"},
		})
		if err != nil {
			return backend.Result{}, err
		}
		n, err := parseContentRange(resp.Header.Get("Content-Range"))
		if err != nil {
			return backend.Result{}, err
		}
		return backend.Result{Count: n}, nil

	case backend.OpInsert:
		payload := make([]map[string]any, 0, len(q.Rows))
		for _, r := range q.Rows {
			enc, err := encodeRow(t, r)
			if err != nil {
				return backend.Result{}, err
			}
			payload = append(payload, enc)
		}
		_, data, err := d.c.do(ctx, request{
			method: http.MethodPost,
			path:   path,
			body:   payload,
			token:  token,
			header: map[string]string{"Prefer": "return=representation"},
		})
		if err != nil {
			return backend.Result{}, err
		}
		rows, err := decodeRows(t, data)
		if err != nil {
			return backend.Result{}, err
		}
		return backend.Result{Rows: rows}, nil

	case backend.OpUpdate, backend.OpDelete:
		method := http.MethodDelete
		var body any
		if q.Op == backend.OpUpdate {
			method = http.MethodPatch
			enc, err := encodeRow(t, q.Values)
			if err != nil {
				return backend.Result{}, err
			}
			body = enc
		}
		params.Set("select", t.PrimaryKey())
		_, data, err := d.c.do(ctx, request{
			method: method,
			path:   path,
			query:  params,
			body:   body,
			token:  token,
			header: map[string]string{"Prefer": "return=representation"},
		})
		if err != nil {
			return backend.Result{}, err
		}
		rows, err := decodeRows(t, data)
		if err != nil {
			return backend.Result{}, err
		}
		return backend.Result{Count: len(rows)}, nil
	}
	return backend.Result{}, backend.ErrUnsupported
}

func selectList(cols []string) string {
	if len(cols) == 0 {
		return "*"
	}
	return strings.Join(cols, ",")
}

func filterParams(t *backend.Table, filters []backend.Filter) (url.Values, error) {
	params := url.Values{}
	for _, f := range filters {
		v, err := t.NormalizeValue(f.Column, f.Value)
		if err != nil {
			return nil, err
		}
		if v == nil {
			params.Add(f.Column, "is.null")
			continue
		}
		params.Add(f.Column, "eq."+literal(v))
	}
	return params, nil
}

// literal renders a normalized value the way PostgREST expects it in a
// query string.
func literal(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case []string:
		return "{" + strings.Join(x, ",") + "}"
	}
	return fmt.Sprint(v)
}

func encodeRow(t *backend.Table, r backend.Row) (map[string]any, error) {
	nr, err := t.Normalize(r)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(nr))
	for k, v := range nr {
		switch x := v.(type) {
		case decimal.Decimal:
			out[k] = json.Number(x.String())
		case time.Time:
			out[k] = x.UTC().Format(time.RFC3339Nano)
		default:
			col, _ := t.Column(k)
			if col.Kind == backend.KindJSON {
				if s, ok := v.(string); ok {
					out[k] = json.RawMessage(s)
					continue
				}
			}
			out[k] = v
		}
	}
	return out, nil
}

// decodeRows accepts either an array of records or a single record.
func decodeRows(t *backend.Table, data []byte) ([]backend.Row, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var raw []map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if data[0] == '{' {
		var one map[string]any
		if err := dec.Decode(&one); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", t.Name, err)
		}
		raw = []map[string]any{one}
	} else if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode %s rows: %w", t.Name, err)
	}

	rows := make([]backend.Row, 0, len(raw))
	for _, r := range raw {
		for k, v := range r {
			// JSON columns come back parsed; keep them as text.
			if col, ok := t.Column(k); ok && col.Kind == backend.KindJSON {
				if _, isString := v.(string); !isString && v != nil {
					b, err := json.Marshal(v)
					if err != nil {
						return nil, err
					}
					r[k] = string(b)
				}
			}
		}
		row, err := t.Normalize(r)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseContentRange reads the total from "0-24/573" or "*/0".
func parseContentRange(h string) (int, error) {
	i := strings.LastIndex(h, "/")
	if i < 0 || i == len(h)-1 {
		return 0, fmt.Errorf("content-range %q: missing total", h)
	}
	total := h[i+1:]
	if total == "*" {
		return 0, fmt.Errorf("content-range %q: total not counted", h)
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("content-range %q: %w", h, err)
	}
	return n, nil
}
