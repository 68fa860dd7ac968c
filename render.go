package wilderblog

import (
	"context"
	"encoding/xml"
	"io"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// RenderStatus writes a templ component with a specific status and content type.
func RenderStatus(c echo.Context, code int, contentType string, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

type rsdXML struct {
	XMLName xml.Name   `xml:"rsd"`
	Version string     `xml:"version,attr"`
	XMLNS   string     `xml:"xmlns,attr"`
	Service rsdService `xml:"service"`
}

type rsdService struct {
	EngineName   string   `xml:"engineName"`
	HomePageLink string   `xml:"homePageLink"`
	APIs         []rsdAPI `xml:"apis>api"`
}

type rsdAPI struct {
	Name      string `xml:"name,attr"`
	Preferred bool   `xml:"preferred,attr"`
	APILink   string `xml:"apiLink,attr"`
	BlogID    string `xml:"blogID,attr"`
}

// rsdDocument is the Really Simple Discovery document authoring clients
// fetch to find the endpoint.
func rsdDocument(cfg SiteConfig) templ.Component {
	apiLink := cfg.URL + cfg.EndpointPath
	doc := rsdXML{
		Version: "1.0",
		XMLNS:   "http://archipelago.phrasewise.com/rsd",
		Service: rsdService{
			EngineName:   "WilderBlog",
			HomePageLink: BuildURL(cfg.URL),
			APIs: []rsdAPI{
				{Name: "MetaWeblog", Preferred: true, APILink: apiLink, BlogID: cfg.Blog.ID},
				{Name: "Blogger", Preferred: false, APILink: apiLink, BlogID: cfg.Blog.ID},
			},
		},
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
		enc := xml.NewEncoder(w)
		enc.Indent("", "  ")
		return enc.Encode(doc)
	})
}
