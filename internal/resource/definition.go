// Package resource implements the generic admin-resource panel: one
// parameterised list/filter/paginate/CRUD flow shared by every backend
// collection the console exposes.
package resource

import (
	"net/http"
	"slices"
	"strings"
)

// PageSize is fixed for every panel.
const PageSize = 20

type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindList
	KindAny
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	default:
		return "any"
	}
}

// Op is one panel operation a resource supports.
type Op uint8

const (
	OpList Op = 1 << iota
	OpGet
	OpCreate
	OpUpdate
	OpDelete
)

const (
	OpsCRUD     = OpList | OpGet | OpCreate | OpUpdate | OpDelete
	OpsReadOnly = OpList | OpGet
)

func (o Op) String() string {
	switch o {
	case OpList:
		return "list"
	case OpGet:
		return "get"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "op"
	}
}

// Field is one writable attribute of a record. Rules are validator tags
// applied after the value has been checked against Kind.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	Rules    string
}

// Action is a resource-specific call outside plain CRUD. A Path holding
// "{id}" is record-scoped.
type Action struct {
	Name   string
	Method string
	Path   string
}

func (a Action) RecordScoped() bool {
	return strings.Contains(a.Path, "{id}")
}

func (a Action) HTTPMethod() string {
	if a.Method == "" {
		return http.MethodPost
	}
	return a.Method
}

// Definition describes one backend collection. Path is the collection
// path relative to the API base; ListPath, CreatePath and ItemPath
// override it where the backend splits them. ListField and ItemField name
// the wrapper key when the backend nests records in an object. A zero Ops
// means full CRUD.
type Definition struct {
	Name       string
	Path       string
	ListPath   string
	CreatePath string
	ItemPath   string
	ListField  string
	ItemField  string
	Filters    []string
	Fields     []Field
	FileFields []string
	Ops        Op
	Actions    []Action
}

func (d Definition) Supports(op Op) bool {
	ops := d.Ops
	if ops == 0 {
		ops = OpsCRUD
	}
	return ops&op != 0
}

// ReadOnly reports whether no mutation is supported.
func (d Definition) ReadOnly() bool {
	return !d.Supports(OpCreate) && !d.Supports(OpUpdate) && !d.Supports(OpDelete)
}

func (d Definition) listPath() string {
	if d.ListPath != "" {
		return d.ListPath
	}
	return d.Path
}

func (d Definition) createPath() string {
	if d.CreatePath != "" {
		return d.CreatePath
	}
	return d.Path
}

func (d Definition) itemPath(id string) string {
	tmpl := d.ItemPath
	if tmpl == "" {
		tmpl = d.Path + "{id}/"
	}
	return strings.ReplaceAll(tmpl, "{id}", id)
}

func (d Definition) field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (d Definition) action(name string) (Action, bool) {
	for _, a := range d.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}

func (d Definition) acceptsFile(field string) bool {
	return slices.Contains(d.FileFields, field)
}

// Multipart reports whether the resource carries file uploads.
func (d Definition) Multipart() bool {
	return len(d.FileFields) > 0
}
