package webhook

import (
	"encoding/json"
	"regexp"
)

// Upstream senders occasionally deliver near-JSON: flat objects with
// unquoted keys and values. Normalize repairs that into strict JSON so
// it can be hashed and parsed. It is a best-effort textual transform,
// not a parser: it only handles flat key/value objects, and every
// repaired value comes out as a string. Nested objects, arrays and
// numeric/boolean typing are out of scope; payloads the repair cannot
// fix fail later at parse or validation time.
//
// Valid JSON passes through byte-identical. The signature is computed
// over whatever bytes this returns, so Normalize must be idempotent:
// Normalize(Normalize(x)) == Normalize(x).

// bare identifier after { or , and before :
var bareKeyPattern = regexp.MustCompile(`([{,])(\s*)([^":,\s]+)(\s*):(\s*)`)

// bare value between : and the next , or }
var bareValuePattern = regexp.MustCompile(`(:\s*)([^",}{\s][^,}]*)?(\s*[,}])`)

func Normalize(raw []byte) []byte {
	if json.Valid(raw) {
		return raw
	}
	s := bareKeyPattern.ReplaceAllString(string(raw), `${1}${2}"${3}"${4}:${5}`)
	s = bareValuePattern.ReplaceAllStringFunc(s, quoteBareValue)
	return []byte(s)
}

func quoteBareValue(match string) string {
	m := bareValuePattern.FindStringSubmatch(match)
	if m == nil {
		return match
	}
	beforeColon, val, after := m[1], m[2], m[3]
	if len(val) > 0 && val[0] == '"' {
		return beforeColon + val + after
	}
	return beforeColon + `"` + val + `"` + after
}
