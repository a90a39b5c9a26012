package diagfmt

import (
	"fmt"
	"io"

	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/source"
)

// Short writes the compact one-line-per-finding form used by scripts and the
// golden tests.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet) {
	fmt.Fprint(w, diag.FormatShortDiagnostics(bag.Items(), fs, true))
}
