package cursor

import "github.com/innodb-tools/innodb-reader/server/innodb/ierrors"

// ErrOutOfBounds is returned whenever a read would advance past the end
// (or before the start, when reading backward) of the cursor's slice.
var ErrOutOfBounds = ierrors.ErrOutOfBounds
