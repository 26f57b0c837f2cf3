// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package v202

import "errors"

var ErrNilTransport = errors.New("v202: nil transport")
