package hefestos

// Statement is the base embedded by every builder. It carries the error
// handlers inherited from the connection the builder was created from.
type Statement struct {
	// ErrHandlers is a list of error handler functions
	ErrHandlers []func(err error)
}

// HandleError receives an error value, and executes all of the statement's
// error handlers with it. Nil errors are ignored.
func (stmt *Statement) HandleError(err error) {
	if err == nil {
		return
	}
	for _, handler := range stmt.ErrHandlers {
		handler(err)
	}
}

// OnError registers an additional error handler for this statement only.
func (stmt *Statement) OnError(handler func(err error)) {
	stmt.ErrHandlers = append(stmt.ErrHandlers, handler)
}
