package pairing

// maxExtractDepth bounds recursion into nested data containers.
// Natural gateway payloads nest one or two levels.
const maxExtractDepth = 10

// codeKeys are the field names the gateway has been seen using for the
// pairing code, in the order they are checked.
var codeKeys = []string{"PairingCode", "pairingCode", "pairing_code", "code", "Code"}

// ExtractCode searches an arbitrarily shaped response payload for a
// pairing code. It checks the known field names at the current level,
// then recurses into a nested "data" object. Returns "" when no
// non-empty string is found or the payload is not an object.
func ExtractCode(payload interface{}) string {
	return extractCode(payload, 0)
}

func extractCode(payload interface{}, depth int) string {
	if depth >= maxExtractDepth {
		return ""
	}
	record, ok := payload.(map[string]interface{})
	if !ok {
		return ""
	}
	for _, key := range codeKeys {
		if value, ok := record[key].(string); ok && value != "" {
			return value
		}
	}
	if data, ok := record["data"]; ok {
		return extractCode(data, depth+1)
	}
	return ""
}
