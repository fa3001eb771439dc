package scraper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"sort"
	"strconv"
)

// Request is one validated search: how many companies to return and which
// directory filters to apply.
type Request struct {
	Count   int
	Filters url.Values
}

// ParseRequest decodes a JSON payload such as
//
//	{"count": 5, "filters": {"industry": "Fintech", "batch": ["W21", "S21"]}}
//
// "n" is accepted as an alias for "count". Only the format is checked here;
// call Validate for the count.
func ParseRequest(payload []byte) (Request, error) {
	var raw struct {
		Count   json.RawMessage `json:"count"`
		N       json.RawMessage `json:"n"`
		Filters map[string]any  `json:"filters"`
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return Request{}, InputError(MsgInvalidJSON, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Request{}, InputError(MsgInvalidJSON, errors.New("trailing data after JSON object"))
	}

	countRaw := raw.Count
	if len(countRaw) == 0 {
		countRaw = raw.N
	}

	filters := url.Values{}
	keys := make([]string, 0, len(raw.Filters))
	for k := range raw.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := addFilter(filters, k, raw.Filters[k]); err != nil {
			return Request{}, InputError(MsgInvalidJSON, err)
		}
	}

	return Request{Count: parseCount(countRaw), Filters: filters}, nil
}

// parseCount accepts any number with an integral value, so 5 and 5.0 are both
// 5. Anything else comes back as 0, which Validate rejects.
func parseCount(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	if i, err := strconv.Atoi(n.String()); err == nil {
		return i
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0
	}
	return int(f)
}

// addFilter flattens a JSON filter value into query parameters. Arrays repeat
// the key and objects nest as key[sub].
func addFilter(v url.Values, key string, val any) error {
	switch x := val.(type) {
	case nil:
		v.Add(key, "")
	case string:
		v.Add(key, x)
	case json.Number:
		v.Add(key, x.String())
	case bool:
		v.Add(key, strconv.FormatBool(x))
	case []any:
		for _, item := range x {
			if err := addFilter(v, key, item); err != nil {
				return err
			}
		}
	case map[string]any:
		subs := make([]string, 0, len(x))
		for k := range x {
			subs = append(subs, k)
		}
		sort.Strings(subs)
		for _, k := range subs {
			if err := addFilter(v, key+"["+k+"]", x[k]); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported value for filter %q", key)
	}
	return nil
}

// Validate enforces Count > 0.
func (r Request) Validate() error {
	if r.Count <= 0 {
		return InputError(MsgInvalidCount, nil)
	}
	return nil
}

// Query encodes the filters as a query string with keys in sorted order.
func (r Request) Query() string {
	return r.Filters.Encode()
}
