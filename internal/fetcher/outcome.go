package fetcher

// Outcome is the result of one Fetch: either the page HTML or a status code
// and message for the caller.
type Outcome struct {
	HTML       string
	StatusCode int
	Message    string
	ok         bool
}

func Success(html string) Outcome {
	return Outcome{HTML: html, ok: true}
}

func Failure(statusCode int, message string) Outcome {
	return Outcome{StatusCode: statusCode, Message: message}
}

// OK reports whether the outcome carries HTML.
func (o Outcome) OK() bool { return o.ok }
