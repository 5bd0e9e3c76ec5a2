package route

import "errors"

var errEmptyInterface = errors.New("interface name required")
