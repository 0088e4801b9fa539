package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// PathObjectID reads an ObjectID path value.
func PathObjectID(r *http.Request, name string) (bson.ObjectID, error) {
	return bson.ObjectIDFromHex(r.PathValue(name))
}

// QueryObjectID reads an optional ObjectID query parameter.
func QueryObjectID(r *http.Request, name string) (*bson.ObjectID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &id, nil
}

// QueryBool reads an optional boolean query parameter. Absent means false.
func QueryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

// DecodeBody decodes a JSON request body into v. An empty body leaves v untouched.
func DecodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}
