package api

import (
	"encoding/json"
	"net/http"
)

// decodeJSONBody decodes r's body into v. A missing or malformed body is
// not an error — most write endpoints treat it as "use the defaults".
func decodeJSONBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	_ = json.NewDecoder(r.Body).Decode(v)
	return nil
}
