package registration_test

import (
	"reflect"
	"testing"
)

// reflectField reads an exported field of an unexported view model.
func reflectField(t *testing.T, data any, name string) any {
	t.Helper()
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	f := v.FieldByName(name)
	if !f.IsValid() {
		t.Fatalf("%T has no field %s", data, name)
	}
	return f.Interface()
}
