// Package parse turns model-emitted strings into Go values. Language models
// routinely produce near-JSON (single quotes, unquoted keys, trailing commas),
// so every decode path here retries through jsonrepair before giving up.
package parse

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/kaptinlin/jsonrepair"
)

// Arguments decodes a tool-call argument payload into a key→value map.
// An empty payload decodes as an empty map (a tool invoked without
// arguments), never as nil. Invalid JSON is repaired and retried once.
func Arguments(content string) (map[string]any, error) {
	if content == "" {
		return map[string]any{}, nil
	}

	var arguments map[string]any
	if err := json.Unmarshal([]byte(content), &arguments); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(content)
		if repairErr != nil {
			return nil, fmt.Errorf("failed to decode tool arguments: unmarshal error: %w, repair error: %v", err, repairErr)
		}
		if err = json.Unmarshal([]byte(repaired), &arguments); err != nil {
			return nil, fmt.Errorf("failed to decode repaired tool arguments: %w", err)
		}
	}

	if arguments == nil {
		arguments = map[string]any{}
	}
	return arguments, nil
}

// StringAs parses a string into the specified type T.
// Primitive types (string, bool, int, uint, float) are converted directly;
// structs, maps, and slices go through JSON unmarshaling with a jsonrepair
// retry when the first attempt fails.
func StringAs[T any](content string) (T, error) {
	var result T

	switch reflect.TypeFor[T]().Kind() {
	case reflect.String:
		reflect.ValueOf(&result).Elem().SetString(content)
		return result, nil

	case reflect.Bool:
		val, err := strconv.ParseBool(content)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as bool: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetBool(val)
		return result, nil

	case reflect.Float32, reflect.Float64:
		val, err := strconv.ParseFloat(content, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as float: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetFloat(val)
		return result, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		val, err := strconv.ParseInt(content, 10, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as int: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetInt(val)
		return result, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		val, err := strconv.ParseUint(content, 10, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as uint: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetUint(val)
		return result, nil

	default:
		err := json.Unmarshal([]byte(content), &result)
		if err != nil {
			repaired, repairErr := jsonrepair.JSONRepair(content)
			if repairErr != nil {
				return result, fmt.Errorf("failed to unmarshal content as %T and failed to repair JSON: unmarshal error: %w, repair error: %v", result, err, repairErr)
			}
			if err = json.Unmarshal([]byte(repaired), &result); err != nil {
				return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w", result, err)
			}
		}
		return result, nil
	}
}
