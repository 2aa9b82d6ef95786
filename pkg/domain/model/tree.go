package model

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ErrDecode indicates a malformed wire payload. Requests failing with
// it are rejected outright; the portal will not get a retryable status.
var ErrDecode = goerr.New("failed to decode webhook payload")

// undefinedSentinel is sent by the portal for absent optional fields.
// The upstream encoder relies on it being treated as null.
const undefinedSentinel = "undefined"

// Tree is the canonical nested key-value representation of a webhook
// payload. Values are either string leaves or nested Trees; typed
// extraction happens during classification, not here.
type Tree map[string]any

// DecodeTree parses a raw webhook body into a canonical tree. Both wire
// encodings the portal uses produce the same tree: form-encoded bodies
// with bracket-notation keys (data[FIELDS_AFTER][ID]) and native JSON.
func DecodeTree(raw []byte, contentType string) (Tree, error) {
	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		return decodeForm(raw)
	case "application/json":
		return decodeJSON(raw)
	default:
		return nil, goerr.Wrap(ErrDecode, "unrecognized content type", goerr.V("content_type", contentType))
	}
}

func decodeForm(raw []byte) (Tree, error) {
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, goerr.Wrap(ErrDecode, "invalid form body", goerr.V("cause", err.Error()))
	}

	tree := Tree{}
	for key, vals := range values {
		path, err := splitBracketPath(key)
		if err != nil {
			return nil, err
		}
		// Repeated append keys (data[IDS][]) carry one value each
		for _, val := range vals {
			tree.set(path, val)
		}
	}
	return tree, nil
}

func decodeJSON(raw []byte) (Tree, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, goerr.Wrap(ErrDecode, "invalid JSON body", goerr.V("cause", err.Error()))
	}

	return fromJSONValue(doc), nil
}

// fromJSONValue converts a decoded JSON object into a Tree. Scalar
// leaves are coerced to strings so both wire encodings are
// indistinguishable downstream. Arrays become trees keyed by index,
// matching the bracket-notation form encoding of the same payload.
func fromJSONValue(doc map[string]any) Tree {
	tree := Tree{}
	for key, val := range doc {
		if leaf, ok := coerceLeaf(val); ok {
			if leaf != nil {
				tree[key] = *leaf
			}
			continue
		}

		switch v := val.(type) {
		case map[string]any:
			tree[key] = fromJSONValue(v)
		case []any:
			sub := map[string]any{}
			for i, item := range v {
				sub[strconv.Itoa(i)] = item
			}
			tree[key] = fromJSONValue(sub)
		}
	}
	return tree
}

// coerceLeaf converts a scalar JSON value to a string leaf. The second
// return value is false for composite values. A nil leaf with ok=true
// means the value is absent (JSON null or the "undefined" sentinel).
func coerceLeaf(val any) (*string, bool) {
	var s string
	switch v := val.(type) {
	case nil:
		return nil, true
	case string:
		s = v
	case json.Number:
		s = v.String()
	case bool:
		s = strconv.FormatBool(v)
	default:
		return nil, false
	}

	if s == undefinedSentinel {
		return nil, true
	}
	return &s, true
}

// splitBracketPath splits a form key like "data[FIELDS_AFTER][ID]" into
// its path segments.
func splitBracketPath(key string) ([]string, error) {
	head := key
	rest := ""
	if i := strings.IndexByte(key, '['); i >= 0 {
		head, rest = key[:i], key[i:]
	}
	if head == "" {
		return nil, goerr.Wrap(ErrDecode, "empty form key", goerr.V("key", key))
	}

	path := []string{head}
	for rest != "" {
		if rest[0] != '[' {
			return nil, goerr.Wrap(ErrDecode, "malformed bracket key", goerr.V("key", key))
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, goerr.Wrap(ErrDecode, "unbalanced bracket key", goerr.V("key", key))
		}
		path = append(path, rest[1:end])
		rest = rest[end+1:]
	}
	return path, nil
}

// set writes a leaf at the given path, creating intermediate maps.
// Empty path segments (PHP-style array append, "data[]") are assigned
// the next free numeric index. The "undefined" sentinel is dropped.
func (t Tree) set(path []string, value string) {
	if value == undefinedSentinel {
		return
	}

	node := t
	for i, seg := range path {
		if seg == "" {
			seg = strconv.Itoa(len(node))
		}
		if i == len(path)-1 {
			node[seg] = value
			return
		}
		next, ok := node[seg].(Tree)
		if !ok {
			next = Tree{}
			node[seg] = next
		}
		node = next
	}
}

// Lookup returns the string leaf at the given path.
func (t Tree) Lookup(path ...string) (string, bool) {
	node := t
	for i, seg := range path {
		val, ok := node[seg]
		if !ok {
			return "", false
		}
		if i == len(path)-1 {
			leaf, ok := val.(string)
			return leaf, ok
		}
		node, ok = val.(Tree)
		if !ok {
			return "", false
		}
	}
	return "", false
}

// Sub returns the subtree at the given path.
func (t Tree) Sub(path ...string) (Tree, bool) {
	node := t
	for _, seg := range path {
		val, ok := node[seg]
		if !ok {
			return nil, false
		}
		node, ok = val.(Tree)
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// StringMap returns the direct string leaves of this tree level.
func (t Tree) StringMap() map[string]string {
	out := make(map[string]string, len(t))
	for key, val := range t {
		if leaf, ok := val.(string); ok {
			out[key] = leaf
		}
	}
	return out
}

// Keys returns the sorted keys of this tree level.
func (t Tree) Keys() []string {
	keys := make([]string, 0, len(t))
	for key := range t {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
