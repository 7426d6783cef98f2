package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"code2deploy-console/internal/backend"
	"code2deploy-console/internal/model"
	"code2deploy-console/internal/validation"
)

// API is the subset of the backend client a panel needs.
type API interface {
	Do(ctx context.Context, creds backend.Credentials, req backend.Request, out any) error
}

// ConfirmationStore keeps pending delete confirmations; Take consumes.
type ConfirmationStore interface {
	Put(ctx context.Context, token string, pending model.PendingDelete, ttl time.Duration) error
	Take(ctx context.Context, token string) (*model.PendingDelete, error)
}

type ActivityLog interface {
	Log(ctx context.Context, entry model.Activity) error
}

// Actor identifies the admin performing a call.
type Actor struct {
	ID   int64
	Name string
}

func ActorFrom(u *model.User) Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{ID: u.ID, Name: u.Username}
}

type Query struct {
	Page    int
	Search  string
	Filters map[string]string
}

type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// TotalPages is ceil(count / PageSize).
func TotalPages(count int) int {
	if count <= 0 {
		return 0
	}
	return (count + PageSize - 1) / PageSize
}

func newPage[T any](items []T, page, total int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:      items,
		Page:       page,
		PageSize:   PageSize,
		TotalCount: total,
		TotalPages: TotalPages(total),
	}
}

// Draft is the set of fields being written. Only declared fields are
// accepted.
type Draft map[string]any

type Confirmation struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Options struct {
	Confirmations ConfirmationStore
	Activity      ActivityLog
	ConfirmTTL    time.Duration
	Logger        *slog.Logger
}

// Panel runs the list/filter/paginate/CRUD flow for one Definition. The
// backend stays the only source of truth; nothing is cached.
type Panel[T any] struct {
	def      Definition
	api      API
	confirms ConfirmationStore
	activity ActivityLog
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewPanel[T any](def Definition, api API, opts Options) *Panel[T] {
	if opts.ConfirmTTL <= 0 {
		opts.ConfirmTTL = 2 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Panel[T]{
		def:      def,
		api:      api,
		confirms: opts.Confirmations,
		activity: opts.Activity,
		ttl:      opts.ConfirmTTL,
		logger:   opts.Logger.With(slog.String("resource", def.Name)),
		now:      time.Now,
	}
}

func (p *Panel[T]) Definition() Definition {
	return p.def
}

// List fetches one page. A page past the last one is empty, not an error.
// On failure no items are returned.
func (p *Panel[T]) List(ctx context.Context, creds backend.Credentials, q Query) (*Page[T], error) {
	if err := p.require(OpList); err != nil {
		return nil, err
	}
	if q.Page < 1 {
		return nil, validation.NewError(map[string]string{"page": "must be at least 1"})
	}

	list, err := p.fetch(ctx, creds, q)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) && q.Page > 1 {
			return p.pastLastPage(ctx, creds, q)
		}
		return nil, err
	}

	if !list.Counted {
		return newPage(window(list.Items, q.Page), q.Page, len(list.Items)), nil
	}
	return newPage(list.Items, q.Page, list.TotalCount), nil
}

// The backend answers 404 for a page beyond its last; page 1 carries the
// count.
func (p *Panel[T]) pastLastPage(ctx context.Context, creds backend.Credentials, q Query) (*Page[T], error) {
	first := q
	first.Page = 1
	list, err := p.fetch(ctx, creds, first)
	if err != nil {
		return nil, err
	}
	total := list.TotalCount
	if !list.Counted {
		total = len(list.Items)
	}
	return newPage[T](nil, q.Page, total), nil
}

func (p *Panel[T]) fetch(ctx context.Context, creds backend.Credentials, q Query) (backend.List[T], error) {
	var raw json.RawMessage
	err := p.api.Do(ctx, creds, backend.Request{
		Method:   http.MethodGet,
		Path:     p.def.listPath(),
		Query:    p.listParams(q),
		Resource: p.def.Name,
	}, &raw)
	if err != nil {
		return backend.List[T]{}, err
	}
	return backend.DecodeList[T](raw, p.def.ListField)
}

func (p *Panel[T]) listParams(q Query) url.Values {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("page_size", strconv.Itoa(PageSize))
	if s := strings.TrimSpace(q.Search); s != "" {
		params.Set("search", s)
	}
	for _, key := range p.def.Filters {
		if v := strings.TrimSpace(q.Filters[key]); v != "" {
			params.Set(key, v)
		}
	}
	return params
}

func window[T any](items []T, page int) []T {
	start := (page - 1) * PageSize
	if start >= len(items) {
		return []T{}
	}
	end := min(start+PageSize, len(items))
	return items[start:end]
}

func (p *Panel[T]) Get(ctx context.Context, creds backend.Credentials, id string) (*T, error) {
	if err := p.require(OpGet); err != nil {
		return nil, err
	}
	if err := checkID(id); err != nil {
		return nil, err
	}

	var raw json.RawMessage
	err := p.api.Do(ctx, creds, backend.Request{
		Method:   http.MethodGet,
		Path:     p.def.itemPath(id),
		Resource: p.def.Name,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return decodeRecord[T](raw, p.def.ItemField)
}

func (p *Panel[T]) Create(ctx context.Context, creds backend.Credentials, actor Actor, draft Draft, files []backend.File) (*T, error) {
	if err := p.require(OpCreate); err != nil {
		return nil, err
	}
	body, err := p.prepare(draft, files, true)
	if err != nil {
		return nil, err
	}

	req := backend.Request{
		Method:   http.MethodPost,
		Path:     p.def.createPath(),
		Resource: p.def.Name,
	}
	setBody(&req, body, files)

	var raw json.RawMessage
	err = p.api.Do(ctx, creds, req, &raw)
	p.record(ctx, actor, "create", recordID(raw, p.def.ItemField), err)
	if err != nil {
		return nil, err
	}
	return decodeRecord[T](raw, p.def.ItemField)
}

// Update sends only the supplied fields. When ifMatch is set it is
// forwarded as If-Match; otherwise the last write wins.
func (p *Panel[T]) Update(ctx context.Context, creds backend.Credentials, actor Actor, id string, draft Draft, files []backend.File, ifMatch string) (*T, error) {
	if err := p.require(OpUpdate); err != nil {
		return nil, err
	}
	if err := checkID(id); err != nil {
		return nil, err
	}
	body, err := p.prepare(draft, files, false)
	if err != nil {
		return nil, err
	}

	req := backend.Request{
		Method:   http.MethodPatch,
		Path:     p.def.itemPath(id),
		Resource: p.def.Name,
	}
	setBody(&req, body, files)
	if ifMatch != "" {
		req.Header = http.Header{"If-Match": []string{ifMatch}}
	}

	var raw json.RawMessage
	err = p.api.Do(ctx, creds, req, &raw)
	p.record(ctx, actor, "update", id, err)
	if err != nil {
		return nil, err
	}
	return decodeRecord[T](raw, p.def.ItemField)
}

// RequestDelete issues a single-use confirmation bound to actor and id.
func (p *Panel[T]) RequestDelete(ctx context.Context, actor Actor, id string) (*Confirmation, error) {
	if err := p.require(OpDelete); err != nil {
		return nil, err
	}
	if err := checkID(id); err != nil {
		return nil, err
	}
	if p.confirms == nil {
		return nil, fmt.Errorf("%s: no confirmation store configured", p.def.Name)
	}

	token := uuid.NewString()
	pending := model.PendingDelete{Resource: p.def.Name, RecordID: id, ActorID: actor.ID}
	if err := p.confirms.Put(ctx, token, pending, p.ttl); err != nil {
		return nil, err
	}
	return &Confirmation{Token: token, ExpiresAt: p.now().Add(p.ttl).UTC()}, nil
}

// Delete issues the destructive call only for a confirmation previously
// returned by RequestDelete to the same actor for the same record.
func (p *Panel[T]) Delete(ctx context.Context, creds backend.Credentials, actor Actor, id, token string) error {
	if err := p.require(OpDelete); err != nil {
		return err
	}
	if err := checkID(id); err != nil {
		return err
	}
	if token == "" || p.confirms == nil {
		return model.ErrConfirmationRequired
	}

	pending, err := p.confirms.Take(ctx, token)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrConfirmationRequired
	}
	if err != nil {
		return err
	}
	if pending.Resource != p.def.Name || pending.RecordID != id || pending.ActorID != actor.ID {
		return model.ErrConfirmationRequired
	}

	err = p.api.Do(ctx, creds, backend.Request{
		Method:   http.MethodDelete,
		Path:     p.def.itemPath(id),
		Resource: p.def.Name,
	}, nil)
	p.record(ctx, actor, "delete", id, err)
	return err
}

// Action runs a named resource-specific call and returns the backend's
// response body untouched.
func (p *Panel[T]) Action(ctx context.Context, creds backend.Credentials, actor Actor, name, id string, body map[string]any) (json.RawMessage, error) {
	action, ok := p.def.action(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no action %q", model.ErrUnknownAction, p.def.Name, name)
	}

	path := action.Path
	if action.RecordScoped() {
		if err := checkID(id); err != nil {
			return nil, err
		}
		path = strings.ReplaceAll(path, "{id}", id)
	}

	req := backend.Request{
		Method:   action.HTTPMethod(),
		Path:     path,
		Resource: p.def.Name,
	}
	if req.Method != http.MethodGet && len(body) > 0 {
		req.Body = body
	}

	var raw json.RawMessage
	err := p.api.Do(ctx, creds, req, &raw)
	if req.Method != http.MethodGet {
		p.record(ctx, actor, name, id, err)
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	return raw, nil
}

func (p *Panel[T]) require(op Op) error {
	if p.def.Supports(op) {
		return nil
	}
	return fmt.Errorf("%w: %s does not support %s", model.ErrForbidden, p.def.Name, op)
}

func (p *Panel[T]) prepare(draft Draft, files []backend.File, create bool) (map[string]any, error) {
	problems := make(map[string]string)
	body := make(map[string]any, len(draft))

	for name, v := range draft {
		f, ok := p.def.field(name)
		if !ok {
			problems[name] = "is not a writable field"
			continue
		}
		if msg, ok := checkValue(f, v); !ok {
			problems[name] = msg
			continue
		}
		body[name] = v
	}

	if create {
		for _, f := range p.def.Fields {
			if _, ok := draft[f.Name]; f.Required && !ok {
				problems[f.Name] = "is required"
			}
		}
	}

	for _, file := range files {
		if !p.def.acceptsFile(file.Field) {
			problems[file.Field] = "does not accept uploads"
		}
	}

	if len(problems) > 0 {
		return nil, validation.NewError(problems)
	}
	if !create && len(body) == 0 && len(files) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", model.ErrInvalidInput)
	}
	return body, nil
}

func (p *Panel[T]) record(ctx context.Context, actor Actor, action, id string, callErr error) {
	if p.activity == nil {
		return
	}
	entry := model.Activity{
		Resource:   p.def.Name,
		Action:     action,
		RecordID:   id,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Status:     "success",
		OccurredAt: p.now().UTC(),
	}
	if callErr != nil {
		entry.Status = "failure"
		entry.Error = callErr.Error()
	}
	if err := p.activity.Log(context.WithoutCancel(ctx), entry); err != nil {
		p.logger.WarnContext(ctx, "failed to record admin activity",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}

func setBody(req *backend.Request, body map[string]any, files []backend.File) {
	if len(files) > 0 {
		req.Form = &backend.Form{Values: body, Files: files}
		return
	}
	req.Body = body
}

func checkID(id string) error {
	if msg, ok := validation.Var(id, "required,number|uuid"); !ok {
		return validation.NewError(map[string]string{"id": msg})
	}
	return nil
}

func checkValue(f Field, v any) (string, bool) {
	if v == nil {
		if f.Required {
			return "is required", false
		}
		return "", true
	}

	var subject any
	switch f.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return "must be a string", false
		}
		if f.Required && strings.TrimSpace(s) == "" {
			return "is required", false
		}
		subject = s
	case KindNumber:
		n, ok := toFloat(v)
		if !ok {
			return "must be a number", false
		}
		subject = n
	case KindBool:
		switch b := v.(type) {
		case bool:
			return "", true
		case string:
			if _, err := strconv.ParseBool(b); err == nil {
				return "", true
			}
		}
		return "must be true or false", false
	case KindList:
		switch v.(type) {
		case []any, string:
			return "", true
		}
		return "must be a list", false
	default:
		return "", true
	}

	if f.Rules == "" {
		return "", true
	}
	return validation.Var(subject, f.Rules)
}

// toFloat accepts numbers and, for multipart input, numeric strings.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func unwrapItem(raw json.RawMessage, field string) json.RawMessage {
	if field == "" {
		return raw
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return raw
	}
	if inner, ok := obj[field]; ok {
		return inner
	}
	return raw
}

func decodeRecord[T any](raw json.RawMessage, field string) (*T, error) {
	var rec T
	if len(raw) == 0 {
		return &rec, nil
	}
	if err := json.Unmarshal(unwrapItem(raw, field), &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}

func recordID(raw json.RawMessage, field string) string {
	if len(raw) == 0 {
		return ""
	}
	var rec struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(unwrapItem(raw, field), &rec); err != nil {
		return ""
	}
	return strings.Trim(string(rec.ID), `"`)
}
