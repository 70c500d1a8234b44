package extractor

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the normalized response of one extraction call. Raw holds the
// backend's JSON body for successful calls and is empty for errors.
type Result struct {
	Status  Status
	Code    int
	Message string
	Raw     []byte
}

// ErrorResult builds an error result. Error results never carry parsed data.
func ErrorResult(code int, message string) *Result {
	return &Result{Status: StatusError, Code: code, Message: message}
}

// ParseResult decodes a backend body. A body without a code is stamped with
// 200, the status it arrived with.
func ParseResult(body []byte) (*Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("invalid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("expected JSON object, got %s", root.Type)
	}

	res := &Result{
		Status:  Status(root.Get("status").String()),
		Message: root.Get("message").String(),
		Raw:     body,
	}
	if code := root.Get("code"); code.Exists() && code.Type == gjson.Number {
		res.Code = int(code.Int())
	} else {
		res.Code = http.StatusOK
		if stamped, err := sjson.SetBytes(body, "code", http.StatusOK); err == nil {
			res.Raw = stamped
		}
	}
	if res.Status == StatusError {
		res.Raw = nil
	}
	return res, nil
}

// Succeeded reports a success result with code 200.
func (r *Result) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess && r.Code == http.StatusOK
}

// Parsed returns the parsed document of a successful result, looked up at
// data.analysis.parsed and then at a top-level parsed. It is empty for
// error results.
func (r *Result) Parsed() Document {
	if r == nil || r.Status != StatusSuccess || len(r.Raw) == 0 {
		return Document{}
	}
	for _, path := range []string{"data.analysis.parsed", "parsed"} {
		if v := gjson.GetBytes(r.Raw, path); v.IsObject() {
			return Document{v: v}
		}
	}
	return Document{}
}
