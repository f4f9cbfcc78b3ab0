package tool

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

func decodeJSONObject(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("trailing data after json object")
	}
	return nil
}
