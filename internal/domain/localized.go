package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

type Lang string

const (
	LangTR Lang = "tr"
	LangEN Lang = "en"
)

// ParseLang accepts tr/en in any case ("TR" comes straight from the route).
func ParseLang(s string) (Lang, error) {
	switch Lang(strings.ToLower(strings.TrimSpace(s))) {
	case LangTR:
		return LangTR, nil
	case LangEN:
		return LangEN, nil
	}
	return "", fmt.Errorf("%w: unsupported language %q", ErrBadRequest, s)
}

type Shape uint8

const (
	ShapeAbsent Shape = iota
	ShapeScalar
	ShapePair
)

// Localized is a field stored either as a single value (legacy records) or as
// a {tr, en} object. Each record field is decoded on its own, so one document
// may mix both shapes.
type Localized[T any] struct {
	Shape Shape
	Value T  // ShapeScalar
	TR    *T // ShapePair; nil when the key is missing
	EN    *T
}

func Scalar[T any](v T) Localized[T] {
	return Localized[T]{Shape: ShapeScalar, Value: v}
}

func Pair[T any](tr, en T) Localized[T] {
	return Localized[T]{Shape: ShapePair, TR: &tr, EN: &en}
}

func (l Localized[T]) IsZero() bool { return l.Shape == ShapeAbsent }

// Pick selects the value for lang. Scalars are returned regardless of lang;
// a pair without the requested key reports false.
func (l Localized[T]) Pick(lang Lang) (T, bool) {
	var zero T
	switch l.Shape {
	case ShapeScalar:
		return l.Value, true
	case ShapePair:
		p := l.EN
		if lang == LangTR {
			p = l.TR
		}
		if p == nil {
			return zero, false
		}
		return *p, true
	}
	return zero, false
}

type pair[T any] struct {
	TR *T `json:"tr,omitempty" bson:"tr,omitempty"`
	EN *T `json:"en,omitempty" bson:"en,omitempty"`
}

func (l Localized[T]) MarshalJSON() ([]byte, error) {
	switch l.Shape {
	case ShapeScalar:
		return json.Marshal(l.Value)
	case ShapePair:
		return json.Marshal(pair[T]{TR: l.TR, EN: l.EN})
	}
	return []byte("null"), nil
}

func (l *Localized[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = Localized[T]{}
		return nil
	}
	if data[0] == '{' {
		var p pair[T]
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*l = Localized[T]{Shape: ShapePair, TR: p.TR, EN: p.EN}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*l = Localized[T]{Shape: ShapeScalar, Value: v}
	return nil
}

func (l Localized[T]) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch l.Shape {
	case ShapeScalar:
		return bson.MarshalValue(l.Value)
	case ShapePair:
		return bson.MarshalValue(pair[T]{TR: l.TR, EN: l.EN})
	}
	return bson.TypeNull, nil, nil
}

func (l *Localized[T]) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeNull, bson.TypeUndefined:
		*l = Localized[T]{}
		return nil
	case bson.TypeEmbeddedDocument:
		var p pair[T]
		if err := raw.Unmarshal(&p); err != nil {
			return err
		}
		*l = Localized[T]{Shape: ShapePair, TR: p.TR, EN: p.EN}
		return nil
	}
	var v T
	if err := raw.Unmarshal(&v); err != nil {
		return err
	}
	*l = Localized[T]{Shape: ShapeScalar, Value: v}
	return nil
}
