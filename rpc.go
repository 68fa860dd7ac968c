package wilderblog

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/donisetti/WilderBlog/xmlrpc"
)

type rpcMethod func(ctx context.Context, p *Processor, args params) (interface{}, error)

// methods maps the legacy method names to processor operations. Argument
// positions follow the MetaWeblog and Blogger APIs.
var methods = map[string]rpcMethod{
	"metaWeblog.newPost": func(ctx context.Context, p *Processor, a params) (interface{}, error) {
		post, err := a.post(3)
		if err != nil {
			return nil, err
		}
		return p.NewPost(ctx, a.str(0), a.str(1), a.str(2), post, a.flag(4))
	},
	"metaWeblog.editPost": func(ctx context.Context, p *Processor, a params) (interface{}, error) {
		post, err := a.post(3)
		if err != nil {
			return nil, err
		}
		return p.EditPost(ctx, a.str(0), a.str(1), a.str(2), post, a.flag(4))
	},
	"metaWeblog.getPost": func(ctx context.Context, p *Processor, a params) (interface{}, error) {
		return p.GetPost(ctx, a.str(0), a.str(1), a.str(2))
	},
	"metaWeblog.newMediaObject": func(ctx context.Context, p *Processor, a params) (interface{}, error) {
		obj, err := a.mediaObject(3)
		if err != nil {
			return nil, err
		}
		return p.NewMediaObject(ctx, a.str(0), a.str(1), a.str(2), obj)
	},
	"metaWeblog.getCategories": func(ctx context.Context, p *Processor, a params) (interface{}, error) {
		return p.GetCategories(ctx, a.str(0), a.str(1), a.str(2))
	},
	"metaWeblog.getRecentPosts": func(ctx context.Context, p *Processor, a params) (interface{}, error) {
		n, err := a.number(3)
		if err != nil {
			return nil, err
		}
		return p.GetRecentPosts(ctx, a.str(0), a.str(1), a.str(2), n)
	},
	"blogger.deletePost": func(ctx context.Context, p *Processor, a params) (interface{}, error) {
		return p.DeletePost(ctx, a.str(0), a.str(1), a.str(2), a.str(3), a.flag(4))
	},
	"blogger.getUsersBlogs": func(ctx context.Context, p *Processor, a params) (interface{}, error) {
		return p.GetUsersBlogs(ctx, a.str(0), a.str(1), a.str(2))
	},
	"blogger.getUserInfo": func(ctx context.Context, p *Processor, a params) (interface{}, error) {
		return p.GetUserInfo(ctx, a.str(0), a.str(1), a.str(2))
	},
}

// Dispatch runs the named call against p. Unknown methods and malformed
// arguments yield transport faults; other errors come from the processor.
func Dispatch(ctx context.Context, p *Processor, call *xmlrpc.Call) (interface{}, error) {
	m, ok := methods[call.Method]
	if !ok {
		return nil, xmlrpc.NewFault(xmlrpc.CodeMethodNotFound, "unknown method "+call.Method)
	}
	return m(ctx, p, params(call.Params))
}

// params gives typed access to positional arguments. Missing string and bool
// arguments read as their zero value. base64 members are still encoded.
type params []interface{}

func (a params) at(i int) interface{} {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

func (a params) str(i int) string {
	switch v := a.at(i).(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (a params) flag(i int) bool {
	switch v := a.at(i).(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

func (a params) number(i int) (int, error) {
	switch v := a.at(i).(type) {
	case int64:
		return int(v), nil
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, nil
		}
	}
	return 0, invalidParam(i, "an int")
}

func (a params) structAt(i int) (map[string]interface{}, error) {
	m, ok := a.at(i).(map[string]interface{})
	if !ok {
		return nil, invalidParam(i, "a struct")
	}
	return m, nil
}

func (a params) post(i int) (Post, error) {
	m, err := a.structAt(i)
	if err != nil {
		return Post{}, err
	}
	post := Post{
		Title:       memberString(m, "title"),
		Description: memberString(m, "description"),
	}
	switch d := m["dateCreated"].(type) {
	case time.Time:
		post.DateCreated = d.UTC()
	case string:
		if t, err := xmlrpc.ParseTime(d); err == nil {
			post.DateCreated = t
		}
	}
	if cats, ok := m["categories"].([]interface{}); ok {
		post.Categories = make([]string, 0, len(cats))
		for _, c := range cats {
			if s, ok := c.(string); ok {
				post.Categories = append(post.Categories, s)
			}
		}
	}
	return post, nil
}

func (a params) mediaObject(i int) (MediaObject, error) {
	m, err := a.structAt(i)
	if err != nil {
		return MediaObject{}, err
	}
	obj := MediaObject{
		Name: memberString(m, "name"),
		Type: memberString(m, "type"),
	}
	switch bits := m["bits"].(type) {
	case string:
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(bits), ""))
		if err != nil {
			return MediaObject{}, invalidParam(i, "a struct with base64 bits")
		}
		obj.Bits = b
	case nil:
		obj.Bits = []byte{}
	default:
		return MediaObject{}, invalidParam(i, "a struct with base64 bits")
	}
	return obj, nil
}

func memberString(m map[string]interface{}, name string) string {
	s, _ := m[name].(string)
	return s
}

func invalidParam(i int, want string) *xmlrpc.Fault {
	return xmlrpc.NewFault(xmlrpc.CodeInvalidParams, fmt.Sprintf("param %d must be %s", i, want))
}
