package erp

import (
	"context"
	"fmt"
	"math"
)

// Record is one row returned by read or search_read.
type Record map[string]interface{}

// Int64 returns the integer stored under key.
func (r Record) Int64(key string) (int64, bool) {
	return AsInt64(r[key])
}

// Float returns the number stored under key. The ERP's false means absent.
func (r Record) Float(key string) (float64, bool) {
	return AsFloat(r[key])
}

// String returns the text stored under key, or "" when absent.
func (r Record) String(key string) string {
	return AsString(r[key])
}

// Many2One returns the referenced id of a many2one field.
func (r Record) Many2One(key string) (int64, bool) {
	return Many2OneID(r[key])
}

// IDs returns the ids of a one2many or many2many field.
func (r Record) IDs(key string) []int64 {
	return AsInt64Slice(r[key])
}

// AsInt64 converts a decoded XML-RPC value to int64.
func AsInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

// AsFloat converts a decoded XML-RPC value to float64. Booleans, strings
// and nil report false.
func AsFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// AsString returns v when it is a string. The ERP sends false for empty text.
func AsString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// Many2OneID extracts the id from a many2one value, which arrives as
// [id, display_name] or false.
func Many2OneID(v interface{}) (int64, bool) {
	switch typed := v.(type) {
	case []interface{}:
		if len(typed) == 0 {
			return 0, false
		}
		return AsInt64(typed[0])
	default:
		id, ok := AsInt64(v)
		if !ok || id <= 0 {
			return 0, false
		}
		return id, true
	}
}

// Many2OneName extracts the display name from a many2one value.
func Many2OneName(v interface{}) string {
	if typed, ok := v.([]interface{}); ok && len(typed) > 1 {
		return AsString(typed[1])
	}
	return ""
}

// AsInt64Slice converts an array of ids. Non-integer entries are skipped.
func AsInt64Slice(v interface{}) []int64 {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if id, ok := AsInt64(item); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Query describes a search_read call.
type Query struct {
	Domain []interface{}
	Fields []string
	Offset int
	Limit  int
	Order  string
}

// Cond builds a single domain leaf such as ("id", "in", ids).
func Cond(field, operator string, value interface{}) []interface{} {
	return []interface{}{field, operator, value}
}

// SearchRead runs search_read on model and decodes the rows.
func SearchRead(ctx context.Context, c Caller, model string, q Query) ([]Record, error) {
	domain := q.Domain
	if domain == nil {
		domain = []interface{}{}
	}
	kwargs := map[string]interface{}{}
	if len(q.Fields) > 0 {
		kwargs["fields"] = q.Fields
	}
	if q.Offset > 0 {
		kwargs["offset"] = q.Offset
	}
	if q.Limit > 0 {
		kwargs["limit"] = q.Limit
	}
	if q.Order != "" {
		kwargs["order"] = q.Order
	}

	reply, err := c.Call(ctx, model, "search_read", []interface{}{domain}, kwargs)
	if err != nil {
		return nil, err
	}
	return toRecords(model, reply)
}

// Read fetches ids from model. Missing ids are simply absent from the result.
func Read(ctx context.Context, c Caller, model string, ids []int64, fields []string) ([]Record, error) {
	if len(ids) == 0 {
		return []Record{}, nil
	}
	kwargs := map[string]interface{}{}
	if len(fields) > 0 {
		kwargs["fields"] = fields
	}
	reply, err := c.Call(ctx, model, "read", []interface{}{ids}, kwargs)
	if err != nil {
		return nil, err
	}
	return toRecords(model, reply)
}

// Search returns the ids matching domain.
func Search(ctx context.Context, c Caller, model string, domain []interface{}, limit int) ([]int64, error) {
	if domain == nil {
		domain = []interface{}{}
	}
	kwargs := map[string]interface{}{}
	if limit > 0 {
		kwargs["limit"] = limit
	}
	reply, err := c.Call(ctx, model, "search", []interface{}{domain}, kwargs)
	if err != nil {
		return nil, err
	}
	if _, ok := reply.([]interface{}); !ok {
		return nil, unexpectedReply(model, "search", reply)
	}
	return AsInt64Slice(reply), nil
}

// SearchCount returns the number of records matching domain.
func SearchCount(ctx context.Context, c Caller, model string, domain []interface{}) (int, error) {
	if domain == nil {
		domain = []interface{}{}
	}
	reply, err := c.Call(ctx, model, "search_count", []interface{}{domain}, nil)
	if err != nil {
		return 0, err
	}
	count, ok := AsInt64(reply)
	if !ok {
		return 0, unexpectedReply(model, "search_count", reply)
	}
	return int(count), nil
}

// Create inserts one record and returns its id.
func Create(ctx context.Context, c Caller, model string, values map[string]interface{}) (int64, error) {
	reply, err := c.Call(ctx, model, "create", []interface{}{values}, nil)
	if err != nil {
		return 0, err
	}
	id, ok := AsInt64(reply)
	if !ok || id <= 0 {
		return 0, unexpectedReply(model, "create", reply)
	}
	return id, nil
}

// Write updates ids with values.
func Write(ctx context.Context, c Caller, model string, ids []int64, values map[string]interface{}) error {
	reply, err := c.Call(ctx, model, "write", []interface{}{ids, values}, nil)
	if err != nil {
		return err
	}
	if ok, _ := reply.(bool); !ok {
		return unexpectedReply(model, "write", reply)
	}
	return nil
}

// Unlink deletes ids and reports what the ERP answered.
func Unlink(ctx context.Context, c Caller, model string, ids []int64) (bool, error) {
	reply, err := c.Call(ctx, model, "unlink", []interface{}{ids}, nil)
	if err != nil {
		return false, err
	}
	ok, _ := reply.(bool)
	return ok, nil
}

// One2many command helpers for write/create values.

// CommandCreate adds a new linked record.
func CommandCreate(values map[string]interface{}) []interface{} {
	return []interface{}{0, 0, values}
}

// CommandClear unlinks every linked record.
func CommandClear() []interface{} {
	return []interface{}{5, 0, 0}
}

// CommandSet replaces the linked set with ids.
func CommandSet(ids []int64) []interface{} {
	if ids == nil {
		ids = []int64{}
	}
	return []interface{}{6, 0, ids}
}

func toRecords(model string, reply interface{}) ([]Record, error) {
	rows, ok := reply.([]interface{})
	if !ok {
		return nil, unexpectedReply(model, "read", reply)
	}
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		fields, ok := row.(map[string]interface{})
		if !ok {
			return nil, unexpectedReply(model, "read", row)
		}
		records = append(records, Record(fields))
	}
	return records, nil
}

func unexpectedReply(model, method string, reply interface{}) error {
	return mapError(model+"."+method, fmt.Errorf("unexpected reply %T", reply))
}
