package messages

import (
	"fmt"
	"reflect"

	ms "github.com/mitchellh/mapstructure"
)

// SessionKey is the session value under which pending messages are stored.
const SessionKey = "flash.messages"

var levelType = reflect.TypeOf(Level(0))

// encode converts messages into a JSON-friendly value so any session store,
// in-memory or serializing, can hold it.
func encode(msgs []Message) []map[string]any {
	out := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, map[string]any{"level": m.Level.String(), "text": m.Text})
	}
	return out
}

// decode reads messages back from whatever the store returned: the value from
// encode, or its generic JSON round trip ([]any of map[string]any).
func decode(v any) ([]Message, error) {
	if v == nil {
		return nil, nil
	}
	var out []Message
	dec, err := ms.NewDecoder(&ms.DecoderConfig{
		DecodeHook:  stringToLevelHook,
		ErrorUnused: true,
		Result:      &out,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("messages: decode session value: %w", err)
	}
	return out, nil
}

func stringToLevelHook(from, to reflect.Type, data any) (any, error) {
	if to != levelType || from.Kind() != reflect.String {
		return data, nil
	}
	return ParseLevel(data.(string))
}
