// Copyright 2024 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osmix

import "go.uber.org/zap"

// log is the package-level logger. It defaults to a no-op so importing
// osmix as a library stays silent unless the host process opts in via
// SetLogger.
var log *zap.SugaredLogger = zap.NewNop().Sugar()

// SetLogger installs l as the package-wide structured logger. The package
// logs only warnings for PBF blobs and blob headers above the recommended
// size. Passing nil restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		log = zap.NewNop().Sugar()
		return
	}
	log = l.Sugar()
}
