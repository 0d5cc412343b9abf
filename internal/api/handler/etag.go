package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// recordETag formats a store version as an ETag.
func recordETag(version uint64) string {
	return fmt.Sprintf(`"record-%d"`, version)
}

// parseRecordETag extracts the version from an If-Match value.
func parseRecordETag(tag string) (uint64, bool) {
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "W/")
	tag = strings.Trim(tag, `"`)
	raw, ok := strings.CutPrefix(tag, "record-")
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ifMatchVersion returns the version named by the If-Match header.
// present is false when the header is absent or "*", in which case the
// request is unconditional.
func ifMatchVersion(r *http.Request) (version uint64, present, valid bool) {
	ifMatch := strings.TrimSpace(r.Header.Get("If-Match"))
	if ifMatch == "" || ifMatch == "*" {
		return 0, false, true
	}
	version, valid = parseRecordETag(ifMatch)
	return version, true, valid
}
