package httpapi

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"github.com/mitchellh/mapstructure"
)

const maxBodyBytes = 1 << 20

// decodeBody fills dst from a JSON body or from an HTML form post. Form
// values are matched to dst by mapstructure tags; empty values are dropped so
// they read as "not provided".
func isFormPost(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/x-www-form-urlencoded"
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("parse form: %w", err)
		}
		return decodeForm(r.PostForm, dst)
	default:
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return fmt.Errorf("decode json: %w", err)
		}
		return nil
	}
}

func decodeForm(values url.Values, dst any) error {
	input := make(map[string]any, len(values))
	for key, vals := range values {
		kept := make([]string, 0, len(vals))
		for _, v := range vals {
			if v != "" {
				kept = append(kept, v)
			}
		}
		switch len(kept) {
		case 0:
		case 1:
			input[key] = kept[0]
		default:
			input[key] = kept
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("decode form: %w", err)
	}
	return nil
}
