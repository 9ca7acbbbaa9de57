package decoder

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/schema"
)

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.SetAliasTag("schema")
	return d
}

// DecodeQuery fills dst (a pointer to a struct with `schema` tags) from
// query string values. Conversion errors are returned keyed by parameter.
func DecodeQuery(dst any, values url.Values) map[string]string {
	err := queryDecoder.Decode(dst, values)
	if err == nil {
		return nil
	}
	errs := make(map[string]string)
	var multi schema.MultiError
	if errors.As(err, &multi) {
		for key, e := range multi {
			var conv schema.ConversionError
			if errors.As(e, &conv) {
				errs[key] = fmt.Sprintf("invalid value for %s", conv.Key)
				continue
			}
			errs[key] = e.Error()
		}
		return errs
	}
	errs["query"] = err.Error()
	return errs
}

// SplitIDs parses a comma separated list of positive integers ("1,2,3").
func SplitIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
