package procfs

import "github.com/giantswarm/procpipe/internal/sentinel"

// ErrUnsupported is returned on platforms without a /proc children view.
const ErrUnsupported = sentinel.Error("process tree discovery is not supported on this platform")
