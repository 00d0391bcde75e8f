package gateway

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Param is one query-string pair.
type Param struct {
	Key   string
	Value any
}

// Params is an ordered list of query parameters. Order is preserved on the wire.
type Params []Param

// Query builds Params from alternating key/value arguments.
// A trailing key without a value is ignored.
func Query(kv ...any) Params {
	out := make(Params, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		out = append(out, Param{Key: key, Value: kv[i+1]})
	}
	return out
}

// Add returns p with key=value appended.
func (p Params) Add(key string, value any) Params {
	return append(p, Param{Key: key, Value: value})
}

// Encode renders the query string without the leading "?".
// Nil values, nil pointers and empty strings are left out entirely; zero
// numbers and false are sent.
func (p Params) Encode() string {
	var b strings.Builder
	for _, param := range p {
		v, ok := formatValue(param.Value)
		if !ok || param.Key == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(param.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v))
	}
	return b.String()
}

func formatValue(v any) (string, bool) {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		return formatValue(rv.Elem().Interface())
	}

	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, x != ""
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case time.Time:
		if x.IsZero() {
			return "", false
		}
		return x.Format(time.RFC3339), true
	case fmt.Stringer:
		return formatValue(x.String())
	}

	s := fmt.Sprint(v)
	return s, s != ""
}
