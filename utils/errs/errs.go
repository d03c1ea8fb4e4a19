package errs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRegistration      = errors.New("invalid registration")
	ErrAlreadyRegistered        = fmt.Errorf("%w: descriptor already registered", ErrInvalidRegistration)
	ErrNotRegistered            = fmt.Errorf("%w: descriptor not registered", ErrInvalidRegistration)
	ErrInvalidPollOpt           = errors.New("edge and level triggering are mutually exclusive")
	ErrUnsupportedAddressFamily = errors.New("unsupported address family")
	ErrClosedFd                 = errors.New("use of closed file descriptor")
	ErrPollClosed               = errors.New("poll is closed")
	ErrChannelClosed            = errors.New("channel is closed")
	ErrUnsupportedOp            = errors.New("unsupported operation")
	ErrEngineShutdown           = errors.New("server is going to be shutdown")
)
