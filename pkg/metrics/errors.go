package metrics

import "errors"

// ErrExportFailed wraps failures writing the Prometheus textfile.
var ErrExportFailed = errors.New("metrics: textfile export failed")
