package provider

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// DecodeSettings fills a T from factory settings through its mapstructure
// tags. Scalars convert loosely and durations may be strings such as "30s".
func DecodeSettings[T any](settings map[string]any) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(settings); err != nil {
		return out, fmt.Errorf("decode provider settings: %w", err)
	}
	return out, nil
}
