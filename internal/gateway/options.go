package gateway

// CallOption tunes a single gateway call.
type CallOption func(*callOptions)

type callOptions struct {
	public  bool
	headers map[string]string
}

// Public sends the request without the bearer token, for endpoints such as login.
func Public() CallOption {
	return func(o *callOptions) { o.public = true }
}

// WithHeader adds an extra request header. It cannot override Content-Type or Authorization.
func WithHeader(key, value string) CallOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

func buildCallOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
