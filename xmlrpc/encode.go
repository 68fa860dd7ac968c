package xmlrpc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	kolo "github.com/kolo/xmlrpc"
)

var (
	paramOpen  = []byte("<param>")
	paramClose = []byte("</param>")
)

// EncodeResponse writes a methodResponse carrying v as its single param.
//
// Structs are encoded member by member using the `xmlrpc` field tag
// (`xmlrpc:"name"` or `xmlrpc:"name,omitempty"`). time.Time values are
// written in their own location; callers pass UTC.
func EncodeResponse(w io.Writer, v interface{}) error {
	val, err := encodeValue(v)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<methodResponse><params><param>")
	buf.Write(val)
	buf.WriteString("</param></params></methodResponse>")
	_, err = w.Write(buf.Bytes())
	return err
}

// EncodeFault writes a methodResponse carrying f as a fault. f.Err is not
// written.
func EncodeFault(w io.Writer, f *Fault) error {
	val, err := encodeValue(kolo.FaultError{Code: f.Code, String: f.Message})
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<methodResponse><fault>")
	buf.Write(val)
	buf.WriteString("</fault></methodResponse>")
	_, err = w.Write(buf.Bytes())
	return err
}

// encodeValue marshals v with kolo's encoder, which is only exported through
// EncodeMethodCall, and cuts the single <value> out of the call it builds.
func encodeValue(v interface{}) ([]byte, error) {
	if v == nil {
		return []byte("<value/>"), nil
	}
	doc, err := kolo.EncodeMethodCall("", v)
	if err != nil {
		return nil, err
	}
	start := bytes.Index(doc, paramOpen)
	end := bytes.LastIndex(doc, paramClose)
	if start < 0 || end < start {
		return nil, fmt.Errorf("xmlrpc: cannot encode %T", v)
	}
	return doc[start+len(paramOpen) : end], nil
}
