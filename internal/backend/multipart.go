package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strconv"
)

// File is one uploaded part of a multipart request.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Form is a multipart/form-data body. Values are rendered the way the
// backend's form parser expects: strings as-is, bools as true/false, lists
// and objects as JSON text.
type Form struct {
	Values map[string]any
	Files  []File
}

func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(f.Values))
	for k := range f.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := f.Values[k]
		if v == nil {
			continue
		}
		if err := w.WriteField(k, formValue(v)); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", k, err)
		}
	}

	for _, file := range f.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Filename))
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create form file %s: %w", file.Field, err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", fmt.Errorf("write form file %s: %w", file.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

func formValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case fmt.Stringer:
		return val.String()
	case []any, map[string]any:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(raw)
	default:
		return fmt.Sprint(val)
	}
}
