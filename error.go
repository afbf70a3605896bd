package match

import "errors"

var (
	ErrInvalidParam     = errors.New("the param is invalid")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrShutdown         = errors.New("order book is shutting down")
	ErrSequenceGap      = errors.New("book log sequence gap")
	ErrDisruptorTimeout = errors.New("disruptor shutdown timeout")
)
