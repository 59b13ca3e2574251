package config

import "net/http"

// HeaderProvider yields the request headers for an endpoint. It is resolved
// on every attempt.
type HeaderProvider interface {
	Headers() (http.Header, error)
}

// StaticHeaders is a fixed header set.
type StaticHeaders http.Header

// Headers returns a copy of the static headers.
func (h StaticHeaders) Headers() (http.Header, error) {
	return http.Header(h).Clone(), nil
}

// DynamicHeaderFunc computes headers at call time.
type DynamicHeaderFunc func() (http.Header, error)

// Headers calls the underlying function.
func (f DynamicHeaderFunc) Headers() (http.Header, error) {
	return f()
}

// HeaderProvider returns the provider for this endpoint. HeaderFunc wins,
// then DynamicHeaders; otherwise Headers are served statically.
func (e EndpointConfig) HeaderProvider() HeaderProvider {
	if e.HeaderFunc != nil {
		return e.HeaderFunc
	}

	static := make(http.Header, len(e.Headers))
	for k, v := range e.Headers {
		if v != "" {
			static.Set(k, v)
		}
	}
	if len(e.DynamicHeaders) == 0 {
		return StaticHeaders(static)
	}

	templates := e.DynamicHeaders
	return DynamicHeaderFunc(func() (http.Header, error) {
		h := static.Clone()
		for k, tmpl := range templates {
			// Headers that expand to nothing are dropped rather than sent empty.
			if v := ExpandEnv(tmpl); v != "" {
				h.Set(k, v)
			}
		}
		return h, nil
	})
}
