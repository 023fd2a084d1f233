// Package validation decodes and validates request sections before a handler runs.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clinicflow/backend/pkg/apperror"
	"github.com/clinicflow/backend/pkg/response"
)

// Section names the part of the request a value was decoded from.
type Section string

const (
	SectionBody   Section = "body"
	SectionParams Section = "params"
	SectionQuery  Section = "query"
)

// Normalizer is implemented by request types that rewrite fields after decoding.
type Normalizer interface {
	Normalize()
}

// Checker is implemented by request types with rules spanning several fields.
type Checker interface {
	Check() []apperror.FieldError
}

// Binder decodes and validates one request section. The returned commit
// stores the validated value on the context.
type Binder func(c *gin.Context) (commit func(), errs []apperror.FieldError)

// Body decodes the JSON body into T.
func Body[T any]() Binder {
	return func(c *gin.Context) (func(), []apperror.FieldError) {
		var v T
		if errs := decodeJSON(c, &v); len(errs) > 0 {
			return nil, errs
		}
		return finish(c, SectionBody, &v)
	}
}

// Params decodes path parameters into T using `uri` tags.
func Params[T any]() Binder {
	return func(c *gin.Context) (func(), []apperror.FieldError) {
		var v T
		lookup := func(name string) (string, bool) {
			val := c.Param(name)
			return val, val != ""
		}
		if errs := decodeStrings(reflect.ValueOf(&v).Elem(), "uri", lookup); len(errs) > 0 {
			return nil, errs
		}
		return finish(c, SectionParams, &v)
	}
}

// Query decodes query parameters into T using `form` tags.
// Absent parameters take the field's `default` tag when present.
func Query[T any]() Binder {
	return func(c *gin.Context) (func(), []apperror.FieldError) {
		var v T
		if errs := decodeStrings(reflect.ValueOf(&v).Elem(), "form", c.GetQuery); len(errs) > 0 {
			return nil, errs
		}
		return finish(c, SectionQuery, &v)
	}
}

// Validate runs every binder and fails with all collected field errors.
// Values are stored only when every section is valid.
func Validate(binders ...Binder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			commits []func()
			errs    []apperror.FieldError
		)
		for _, bind := range binders {
			commit, fieldErrs := bind(c)
			if len(fieldErrs) > 0 {
				errs = append(errs, fieldErrs...)
				continue
			}
			commits = append(commits, commit)
		}
		if len(errs) > 0 {
			response.Fail(c, apperror.Validation(errs))
			return
		}
		for _, commit := range commits {
			commit()
		}
		c.Next()
	}
}

// Get returns the validated value of type T decoded from section.
// It panics when the route did not validate that section into T.
func Get[T any](c *gin.Context, section Section) T {
	v, ok := c.Get(key[T](section))
	if !ok {
		panic(fmt.Sprintf("validation: no %s value of type %s on context", section, typeName[T]()))
	}
	return v.(T)
}

func BodyOf[T any](c *gin.Context) T   { return Get[T](c, SectionBody) }
func ParamsOf[T any](c *gin.Context) T { return Get[T](c, SectionParams) }
func QueryOf[T any](c *gin.Context) T  { return Get[T](c, SectionQuery) }

func finish[T any](c *gin.Context, section Section, v *T) (func(), []apperror.FieldError) {
	applyNormalizeTags(reflect.ValueOf(v).Elem())
	if n, ok := any(v).(Normalizer); ok {
		n.Normalize()
	}
	errs := Struct(v)
	if ch, ok := any(v).(Checker); ok {
		errs = append(errs, ch.Check()...)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	value := *v
	return func() { c.Set(key[T](section), value) }, nil
}

func key[T any](section Section) string {
	return "validated." + string(section) + "." + typeName[T]()
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

func decodeJSON(c *gin.Context, v interface{}) []apperror.FieldError {
	if c.Request.Body == nil {
		return nil
	}
	err := json.NewDecoder(c.Request.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []apperror.FieldError{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("%s must be of type %s", typeErr.Field, jsonType(typeErr.Type)),
		}}
	}
	return []apperror.FieldError{{Field: "body", Message: "request body must be valid JSON"}}
}

func jsonType(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int32, reflect.Int64, reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}

// decodeStrings fills tagged fields of rv from string values. gin's form
// binding reports conversion failures without the field name, so the
// conversion is done here.
func decodeStrings(rv reflect.Value, tag string, lookup func(string) (string, bool)) []apperror.FieldError {
	var errs []apperror.FieldError
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		fv := rv.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			errs = append(errs, decodeStrings(fv, tag, lookup)...)
			continue
		}
		name := f.Tag.Get(tag)
		if name == "" || name == "-" {
			continue
		}
		raw, ok := lookup(name)
		if !ok {
			def, hasDefault := f.Tag.Lookup("default")
			if !hasDefault {
				continue
			}
			raw = def
		}
		if err := setFromString(fv, raw); err != nil {
			errs = append(errs, apperror.FieldError{Field: name, Message: fmt.Sprintf("%s must be of type %s", name, jsonType(fv.Type()))})
		}
	}
	return errs
}

func setFromString(fv reflect.Value, raw string) error {
	if fv.Kind() == reflect.Pointer {
		elem := reflect.New(fv.Type().Elem())
		if err := setFromString(elem.Elem(), raw); err != nil {
			return err
		}
		fv.Set(elem)
		return nil
	}
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	default:
		return fmt.Errorf("unsupported field kind %s", fv.Kind())
	}
	return nil
}

// applyNormalizeTags rewrites string fields tagged `normalize:"trim,lower"`.
func applyNormalizeTags(rv reflect.Value) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		fv := rv.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			applyNormalizeTags(fv)
			continue
		}
		ops := f.Tag.Get("normalize")
		if ops == "" {
			continue
		}
		target := fv
		if target.Kind() == reflect.Pointer {
			if target.IsNil() {
				continue
			}
			target = target.Elem()
		}
		if target.Kind() != reflect.String {
			continue
		}
		s := target.String()
		for _, op := range strings.Split(ops, ",") {
			switch strings.TrimSpace(op) {
			case "trim":
				s = strings.TrimSpace(s)
			case "lower":
				s = strings.ToLower(s)
			}
		}
		target.SetString(s)
	}
}
