package pagination

import (
	"encoding/base64"
	"strconv"
	"strings"

	pkgerrors "github.com/xkartlabs/xkart-backend/pkg/errors"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any cursor query can request.
	MaxLimit = 100
)

// Params holds cursor pagination inputs from controllers.
type Params struct {
	Limit  int
	Cursor string
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// EncodeCursor builds an opaque cursor from the last id of a page.
func EncodeCursor(afterID uint64) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.FormatUint(afterID, 10)))
}

// ParseCursor decodes the cursor string back into an id. An empty cursor
// means "from the beginning" and decodes to zero.
func ParseCursor(value string) (uint64, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	id, err := strconv.ParseUint(string(decoded), 10, 64)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return id, nil
}
