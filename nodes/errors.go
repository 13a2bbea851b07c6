package nodes

import "errors"

var errMissingContainer = errors.New("nodes: graph context has no *nodes.Container wired in")
