package wilderblog

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/donisetti/WilderBlog/xmlrpc"
)

const mimeTextXMLCharsetUTF8 = "text/xml; charset=utf-8"

// handleXMLRPC decodes a methodCall, dispatches it, and writes the result or
// fault. Errors that are not faults become a 500 via httpErrorHandler.
func (a *App) handleXMLRPC(c echo.Context) error {
	call, err := xmlrpc.DecodeCall(c.Request().Body)
	if err != nil {
		return a.writeFault(c, "", &xmlrpc.Fault{Code: xmlrpc.CodeParseError, Message: "parse error", Err: err})
	}

	ctx := WithClientIP(c.Request().Context(), c.RealIP())
	result, err := Dispatch(ctx, a.Processor, call)
	if err != nil {
		var fault *xmlrpc.Fault
		if errors.As(err, &fault) {
			return a.writeFault(c, call.Method, fault)
		}
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}

	c.Response().Header().Set(echo.HeaderContentType, mimeTextXMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return xmlrpc.EncodeResponse(c.Response(), result)
}

func (a *App) writeFault(c echo.Context, method string, f *xmlrpc.Fault) error {
	if f.Err != nil && !errors.Is(f.Err, ErrAuthenticationFailed) {
		c.Logger().Errorf("%s: %s: %v", method, f.Message, f.Err)
	} else {
		c.Logger().Warnf("%s: fault %d: %s", method, f.Code, f.Message)
	}
	c.Response().Header().Set(echo.HeaderContentType, mimeTextXMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return xmlrpc.EncodeFault(c.Response(), f)
}

func (a *App) handleRSD(c echo.Context) error {
	return RenderStatus(c, http.StatusOK, "application/rsd+xml; charset=utf-8", rsdDocument(a.Config))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
