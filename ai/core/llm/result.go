package llm

// Result holds the outcome of a completion whose failure is tolerated.
type Result struct {
	Text string
	Err  error
}

// ResultOf captures a (text, error) pair, typically straight from
// Backend.Complete.
func ResultOf(text string, err error) Result {
	return Result{Text: text, Err: err}
}

// OK reports whether the completion succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// OrElse returns the text on success and fallback otherwise.
func (r Result) OrElse(fallback string) string {
	if r.Err != nil {
		return fallback
	}
	return r.Text
}
