package node

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"fortio.org/safecast"
	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"

	"github.com/sandrolain/gofhirpath/pkg/value"
)

// ErrDecode wraps every error returned by Decode.
var ErrDecode = errors.New("node: decode")

// Schema declares the field types of complex types, which Decode uses to
// type primitive fields and nested objects. A field named "value[x]" is a
// choice field: document keys such as "valueQuantity" resolve to the field
// "value" with type "Quantity".
type Schema struct {
	// Types maps a type name to its fields and their type names.
	Types map[string]map[string]string
	// Bases maps a type name to its base types, nearest first.
	Bases map[string][]string
}

func (s *Schema) fields(typ string) map[string]string {
	if s == nil {
		return nil
	}
	return s.Types[typ]
}

func (s *Schema) bases(typ string) []string {
	if s == nil {
		return nil
	}
	return s.Bases[typ]
}

// primitiveTypes lists the primitive field types Decode converts, mapped to
// how their document value is read.
var primitiveTypes = map[string]string{
	"boolean":      value.TypeBoolean,
	"integer":      value.TypeInteger,
	"positiveInt":  value.TypeInteger,
	"unsignedInt":  value.TypeInteger,
	"decimal":      value.TypeDecimal,
	"string":       value.TypeString,
	"code":         value.TypeString,
	"id":           value.TypeString,
	"uri":          value.TypeString,
	"url":          value.TypeString,
	"canonical":    value.TypeString,
	"markdown":     value.TypeString,
	"oid":          value.TypeString,
	"uuid":         value.TypeString,
	"base64Binary": value.TypeString,
	"date":         value.TypeDate,
	"dateTime":     value.TypeDateTime,
	"instant":      value.TypeDateTime,
	"time":         value.TypeTime,
}

// Decode parses a YAML or JSON document into an Element tree. The root
// object must carry a "resourceType" key naming its type. Keys keep their
// document order, list values become repeated children of the same name, and
// decimals keep the digits written in the document, so 1.10 has scale 2.
func Decode(data []byte, schema *Schema) (TypedNode, error) {
	file, err := parser.ParseBytes(data, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if len(file.Docs) == 0 || file.Docs[0].Body == nil {
		return nil, fmt.Errorf("%w: empty document", ErrDecode)
	}
	doc, err := docValue(file.Docs[0].Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	root, ok := doc.(yaml.MapSlice)
	if !ok {
		return nil, fmt.Errorf("%w: document root must be an object, got %T", ErrDecode, doc)
	}
	typ := resourceType(root)
	if typ == "" {
		return nil, fmt.Errorf("%w: document root has no resourceType", ErrDecode)
	}
	d := decoder{schema: schema}
	e, err := d.object("", typ, typ, root)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// scalar is a document scalar together with the text it was written as.
type scalar struct {
	text    string
	number  bool
	boolean bool
}

// docValue converts a parsed YAML node into yaml.MapSlice for mappings,
// []any for sequences, scalar for scalars and nil for null.
func docValue(n ast.Node) (any, error) {
	switch v := n.(type) {
	case nil, *ast.NullNode:
		return nil, nil
	case *ast.TagNode:
		return docValue(v.Value)
	case *ast.AnchorNode:
		return docValue(v.Value)
	case *ast.MappingNode:
		return mapping(v.Values)
	case *ast.MappingValueNode:
		return mapping([]*ast.MappingValueNode{v})
	case *ast.SequenceNode:
		out := make([]any, 0, len(v.Values))
		for _, item := range v.Values {
			x, err := docValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, x)
		}
		return out, nil
	case *ast.StringNode:
		return scalar{text: v.Value}, nil
	case *ast.LiteralNode:
		return scalar{text: v.Value.Value}, nil
	case *ast.IntegerNode:
		return scalar{text: fmt.Sprint(v.Value), number: true}, nil
	case *ast.FloatNode:
		return scalar{text: v.Token.Value, number: true}, nil
	case *ast.BoolNode:
		return scalar{text: strconv.FormatBool(v.Value), boolean: true}, nil
	}
	return nil, fmt.Errorf("line %d: unsupported %s node", n.GetToken().Position.Line, n.Type())
}

func mapping(values []*ast.MappingValueNode) (yaml.MapSlice, error) {
	m := make(yaml.MapSlice, 0, len(values))
	for _, mv := range values {
		key, ok := mv.Key.(*ast.StringNode)
		if !ok {
			return nil, fmt.Errorf("line %d: object key %s is not a string",
				mv.Key.GetToken().Position.Line, mv.Key.GetToken().Value)
		}
		val, err := docValue(mv.Value)
		if err != nil {
			return nil, err
		}
		m = append(m, yaml.MapItem{Key: key.Value, Value: val})
	}
	return m, nil
}

type decoder struct {
	schema *Schema
}

func resourceType(m yaml.MapSlice) string {
	for _, item := range m {
		if item.Key == "resourceType" {
			s, _ := item.Value.(scalar)
			return s.text
		}
	}
	return ""
}

func (d decoder) object(name, typ, path string, m yaml.MapSlice) (*Element, error) {
	fields := d.schema.fields(typ)
	var children []TypedNode
	for _, item := range m {
		key, _ := item.Key.(string)
		if key == "resourceType" {
			continue
		}
		field, fieldType := resolveField(fields, key)
		items, isList := item.Value.([]any)
		if !isList {
			items = []any{item.Value}
		}
		for i, raw := range items {
			childPath := path + "." + field
			if isList {
				childPath += "[" + strconv.Itoa(i) + "]"
			}
			child, err := d.child(field, fieldType, childPath, raw)
			if err != nil {
				return nil, err
			}
			if child != nil {
				children = append(children, child)
			}
		}
	}
	e := NewComplex(name, typ, children, Location{Path: path})
	if bases := d.schema.bases(typ); len(bases) > 0 {
		e = e.WithBases(bases...)
	}
	return e, nil
}

func (d decoder) child(name, typ, path string, raw any) (TypedNode, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case yaml.MapSlice:
		if rt := resourceType(v); rt != "" {
			typ = rt
		}
		if typ == "" {
			typ = "Element"
		}
		e, err := d.object(name, typ, path, v)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	sc, _ := raw.(scalar)
	prim, typ, err := primitive(typ, sc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return NewPrimitive(name, typ, prim, Location{Path: path}), nil
}

// resolveField maps a document key to its field name and declared type.
func resolveField(fields map[string]string, key string) (string, string) {
	if t, ok := fields[key]; ok {
		return key, t
	}
	for f := range fields {
		prefix, ok := strings.CutSuffix(f, "[x]")
		if !ok || !strings.HasPrefix(key, prefix) || len(key) == len(prefix) {
			continue
		}
		suffix := key[len(prefix):]
		if !unicode.IsUpper(rune(suffix[0])) {
			continue
		}
		if lower := strings.ToLower(suffix[:1]) + suffix[1:]; primitiveTypes[lower] != "" {
			return prefix, lower
		}
		return prefix, suffix
	}
	return key, ""
}

// primitive converts a scalar document value to the system value for typ.
// An empty typ is inferred from the scalar.
func primitive(typ string, s scalar) (value.Value, string, error) {
	if typ == "" {
		typ = s.inferType()
	}
	switch primitiveTypes[typ] {
	case value.TypeBoolean:
		if s.number {
			break
		}
		b, err := strconv.ParseBool(s.text)
		if err != nil {
			return nil, typ, err
		}
		return value.Boolean(b), typ, nil
	case value.TypeInteger:
		if s.boolean {
			break
		}
		i, err := strconv.ParseInt(s.text, 10, 64)
		if err != nil {
			return nil, typ, err
		}
		n, err := safecast.Conv[int32](i)
		if err != nil {
			return nil, typ, err
		}
		return value.Integer(n), typ, nil
	case value.TypeDecimal:
		if s.boolean {
			break
		}
		d, err := value.ParseDecimal(s.text)
		if err != nil {
			return nil, typ, err
		}
		return d, typ, nil
	case value.TypeDate:
		d, err := value.ParseDate(s.text)
		return d, typ, err
	case value.TypeDateTime:
		dt, err := value.ParseDateTime(s.text)
		return dt, typ, err
	case value.TypeTime:
		tm, err := value.ParseTime(s.text)
		return tm, typ, err
	case value.TypeString:
		return value.String(s.text), typ, nil
	}
	return nil, typ, fmt.Errorf("cannot read %q as %s", s.text, typ)
}

func (s scalar) inferType() string {
	switch {
	case s.boolean:
		return "boolean"
	case s.number:
		if _, err := strconv.ParseInt(s.text, 10, 32); err == nil {
			return "integer"
		}
		return "decimal"
	}
	return "string"
}
