package moderation

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// field returns the exported struct field of obj named name. The name may be
// the Go field name or its json tag name.
func field(obj any, name string) (reflect.Value, error) {
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("%s on nil object: %w", name, ErrFieldNotFound)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%s on %s: %w", name, v.Type(), ErrFieldNotFound)
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if sf.Name == name || (tag != "" && tag != "-" && tag == name) {
			return v.Field(i), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("%s on %s: %w", name, t, ErrFieldNotFound)
}

// boolField reads a bool field.
func boolField(obj any, name string) (bool, error) {
	f, err := field(obj, name)
	if err != nil {
		return false, err
	}
	if f.Kind() != reflect.Bool {
		return false, fmt.Errorf("field %s is %s, not bool", name, f.Type())
	}
	return f.Bool(), nil
}

// timeField reads a time.Time or *time.Time field. ok is false for a nil
// pointer or a zero time.
func timeField(obj any, name string) (t time.Time, ok bool, err error) {
	f, err := field(obj, name)
	if err != nil {
		return time.Time{}, false, err
	}
	if f.Kind() == reflect.Pointer && f.Type().Elem() == timeType {
		if f.IsNil() {
			return time.Time{}, false, nil
		}
		f = f.Elem()
	}
	if f.Type() != timeType {
		return time.Time{}, false, fmt.Errorf("field %s is %s, not time.Time", name, f.Type())
	}
	t = f.Interface().(time.Time)
	return t, !t.IsZero(), nil
}

// isDate reports whether t carries no time of day.
func isDate(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

// daysSince returns the whole days from then to now. A then with no time of
// day is a calendar date, and both sides are compared as dates in then's
// location.
func daysSince(now, then time.Time) (int, error) {
	if isDate(then) {
		loc := then.Location()
		ny, nm, nd := now.In(loc).Date()
		ty, tm, td := then.Date()
		now = time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
		then = time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	}
	if now.Before(then) {
		return 0, ErrFutureDate
	}
	return int(now.Sub(then) / (24 * time.Hour)), nil
}
