package eventstream

import "errors"

// ErrNilEditEvent indicates a nil edit event payload was provided to a publisher.
var ErrNilEditEvent = errors.New("nil edit event")
