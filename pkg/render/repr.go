package render

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/cel-go/common/types/ref"

	"github.com/Mindburn-Labs/dbc/pkg/config"
)

// Limits bounds the representation of values in violation messages.
type Limits struct {
	MaxString int
	MaxItems  int
}

// DefaultLimits returns the limits from the process settings.
func DefaultLimits() Limits {
	s := config.Current()
	return Limits{MaxString: s.MaxString, MaxItems: s.MaxItems}
}

// Repr returns a bounded, single-line representation of v.
func Repr(v any, l Limits) string {
	s := repr(v, l, 0)
	if l.MaxString > 0 && len(s) > l.MaxString {
		cut := l.MaxString
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	return s
}

func repr(v any, l Limits, depth int) string {
	if v == nil {
		return "nil"
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "nil"
	}
	switch t := v.(type) {
	case string:
		return fmt.Sprintf("%q", t)
	case ref.Val:
		if inner := t.Value(); inner != v {
			return repr(inner, l, depth)
		}
		return fmt.Sprintf("%v", t)
	case error:
		return safely("Error", t.Error)
	case fmt.Stringer:
		return safely("String", t.String)
	}
	if depth > 3 {
		return "..."
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "[]"
		}
		items := make([]string, 0, min(rv.Len(), max(l.MaxItems, 0)))
		for i := 0; i < rv.Len(); i++ {
			if l.MaxItems > 0 && i >= l.MaxItems {
				items = append(items, fmt.Sprintf("... %d more", rv.Len()-i))
				break
			}
			items = append(items, repr(rv.Index(i).Interface(), l, depth+1))
		}
		return "[" + strings.Join(items, ", ") + "]"
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		items := make([]string, 0, len(keys))
		for i, k := range keys {
			if l.MaxItems > 0 && i >= l.MaxItems {
				items = append(items, fmt.Sprintf("... %d more", len(keys)-i))
				break
			}
			items = append(items, repr(k.Interface(), l, depth+1)+": "+repr(rv.MapIndex(k).Interface(), l, depth+1))
		}
		return "{" + strings.Join(items, ", ") + "}"
	case reflect.Pointer:
		if rv.IsNil() {
			return "nil"
		}
		return "&" + repr(rv.Elem().Interface(), l, depth+1)
	}
	return fmt.Sprintf("%+v", v)
}

// safely calls a formatting method, turning a panic into a marker the way fmt
// does.
func safely(method string, fn func() string) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = fmt.Sprintf("%%!v(PANIC=%s method: %v)", method, r)
		}
	}()
	return fn()
}
