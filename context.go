package buildops

// Context is passed into every operation body. The body may call SetResult
// and/or Failed at most once each; both are observed through the finished
// event emitted after the body returns.
type Context struct {
	result  any
	failure error
	resultSet bool
}

// SetResult records the operation's result, to be reported on the finished
// event. Calling it more than once overwrites the previously set value;
// callers are expected to call it at most once.
func (c *Context) SetResult(v any) {
	c.result = v
	c.resultSet = true
}

// Failed records the operation's failure, to be reported on the finished
// event and then rethrown by the executor once bookkeeping completes.
func (c *Context) Failed(err error) {
	c.failure = err
}

// Result returns the value previously passed to SetResult, if any.
func (c *Context) Result() (any, bool) {
	return c.result, c.resultSet
}

// Failure returns the error previously passed to Failed, if any.
func (c *Context) Failure() error {
	return c.failure
}
