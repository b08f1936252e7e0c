package security

// MaskValue replaces sensitive values in logs and masked copies.
const MaskValue = "***MASKED***"

var sensitiveFields = map[string]struct{}{
	"password":      {},
	"token":         {},
	"secret":        {},
	"key":           {},
	"authorization": {},
}

// IsSensitiveField reports whether name is one of the masked field names.
// The match is exact and case-sensitive.
func IsSensitiveField(name string) bool {
	_, ok := sensitiveFields[name]
	return ok
}

// MaskSensitiveData returns a shallow copy of data with the values of
// sensitive top-level keys replaced by MaskValue. Empty values are left
// alone and nested objects are not visited.
func MaskSensitiveData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}

	masked := make(map[string]any, len(data))
	for key, value := range data {
		if IsSensitiveField(key) && !isEmpty(value) {
			masked[key] = MaskValue
			continue
		}
		masked[key] = value
	}
	return masked
}

func isEmpty(v any) bool {
	switch typed := v.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	case bool:
		return !typed
	case int:
		return typed == 0
	case int64:
		return typed == 0
	case float64:
		return typed == 0
	default:
		return false
	}
}
