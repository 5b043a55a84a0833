package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// ParseJSON decodes JSON from the request body into the destination
func ParseJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// ParseJSONOrError decodes JSON and writes error response on failure
func ParseJSONOrError(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := ParseJSON(r, dest); err != nil {
		WriteBadRequest(w, err.Error())
		return false
	}
	return true
}

// ParsePathUUID extracts and parses a UUID path parameter
func ParsePathUUID(r *http.Request, key string) (uuid.UUID, error) {
	vars := mux.Vars(r)
	str := vars[key]
	if str == "" {
		return uuid.Nil, fmt.Errorf("missing path parameter: %s", key)
	}
	val, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid uuid for %s: %s", key, str)
	}
	return val, nil
}

// ParsePathUUIDOrError extracts a UUID path parameter and writes error on failure
func ParsePathUUIDOrError(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	val, err := ParsePathUUID(r, key)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return uuid.Nil, false
	}
	return val, true
}

// ParsePathString extracts a string path parameter
func ParsePathString(r *http.Request, key string) (string, error) {
	vars := mux.Vars(r)
	str := vars[key]
	if str == "" {
		return "", fmt.Errorf("missing path parameter: %s", key)
	}
	return str, nil
}

// GetPathVars returns all path variables from the request
func GetPathVars(r *http.Request) map[string]string {
	return mux.Vars(r)
}

// ParseQueryInt extracts and parses an integer query parameter
func ParseQueryInt(r *http.Request, key string, defaultVal int) (int, error) {
	str := r.URL.Query().Get(key)
	if str == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for query param %s: %s", key, str)
	}
	return val, nil
}

// ParseQueryUUID extracts and parses a UUID query parameter. Returns
// uuid.Nil and false when the parameter is absent.
func ParseQueryUUID(r *http.Request, key string) (uuid.UUID, bool, error) {
	str := r.URL.Query().Get(key)
	if str == "" {
		return uuid.Nil, false, nil
	}
	val, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("invalid uuid for query param %s: %s", key, str)
	}
	return val, true, nil
}

// ParseQueryString extracts a string query parameter
func ParseQueryString(r *http.Request, key string, defaultVal string) string {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// RequireNonEmpty validates that a string field is not empty
func RequireNonEmpty(w http.ResponseWriter, value, fieldName string) bool {
	if value == "" {
		WriteValidationError(w, fmt.Sprintf("%s is required", fieldName))
		return false
	}
	return true
}

// Validator is a function that validates a value and returns an error message if invalid
type Validator func() (bool, string)

// ValidateAll runs multiple validators and writes the first error
func ValidateAll(w http.ResponseWriter, validators ...Validator) bool {
	for _, validator := range validators {
		if valid, errMsg := validator(); !valid {
			WriteValidationError(w, errMsg)
			return false
		}
	}
	return true
}
