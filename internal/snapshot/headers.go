// headers.go — Header encoding shared by the SQLite and Redis backends.
package snapshot

import "encoding/json"

func encodeHeaders(headers map[string][]string) (string, error) {
	if len(headers) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(headers)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeHeaders(raw string) (map[string][]string, error) {
	headers := map[string][]string{}
	if raw == "" {
		return headers, nil
	}
	if err := json.Unmarshal([]byte(raw), &headers); err != nil {
		return nil, err
	}
	return headers, nil
}
