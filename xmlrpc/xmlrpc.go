// Package xmlrpc is the server side of XML-RPC for blog-authoring clients.
// Values are decoded and encoded by github.com/kolo/xmlrpc; this package
// reads the methodCall envelope and writes methodResponse documents and
// faults around them.
package xmlrpc

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	kolo "github.com/kolo/xmlrpc"
)

// Standard fault codes used for transport-level failures.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
)

// Call is a decoded methodCall. Params hold the positional arguments as
// string, int64, bool, float64, time.Time, []interface{},
// map[string]interface{} or nil. base64 values arrive as their encoded
// string; empty values arrive as nil.
type Call struct {
	Method string
	Params []interface{}
}

// Fault is an XML-RPC fault response. Err, when set, is the underlying cause;
// it is never written to the wire.
type Fault struct {
	Code    int
	Message string
	Err     error
}

func (f *Fault) Error() string {
	return f.Message
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// NewFault returns a fault with the given code and message.
func NewFault(code int, msg string) *Fault {
	return &Fault{Code: code, Message: msg}
}

type methodCall struct {
	XMLName    xml.Name   `xml:"methodCall"`
	MethodName string     `xml:"methodName"`
	Params     []rawParam `xml:"params>param"`
}

type rawParam struct {
	Inner []byte `xml:",innerxml"`
}

// kolo's decoder consumes the closing tag of an empty untyped value and then
// skips the following struct member, so empty values are rewritten as empty
// strings first.
var emptyValue = regexp.MustCompile(`<value\s*/>|<value>\s*</value>`)

// DecodeCall reads a methodCall document from r.
func DecodeCall(r io.Reader) (*Call, error) {
	var mc methodCall
	if err := xml.NewDecoder(r).Decode(&mc); err != nil {
		return nil, fmt.Errorf("decode method call: %w", err)
	}
	name := strings.TrimSpace(mc.MethodName)
	if name == "" {
		return nil, fmt.Errorf("decode method call: missing methodName")
	}
	call := &Call{Method: name, Params: make([]interface{}, 0, len(mc.Params))}
	for i, p := range mc.Params {
		raw := emptyValue.ReplaceAll(p.Inner, []byte("<value><string></string></value>"))
		var v interface{}
		if err := kolo.Response(raw).Unmarshal(&v); err != nil {
			return nil, fmt.Errorf("decode param %d: %w", i, err)
		}
		call.Params = append(call.Params, v)
	}
	return call, nil
}

var timeLayouts = []string{
	"20060102T15:04:05",
	"20060102T15:04:05Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
}

// ParseTime parses a dateTime.iso8601 value sent as a plain string. Values
// without a zone are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid dateTime.iso8601 %q", s)
}
