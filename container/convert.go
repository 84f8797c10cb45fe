package container

import (
	"fmt"
	"strconv"
	"time"

	"github.com/n-r-w/zfcore/schema"
	"github.com/n-r-w/zfcore/zferr"
)

// convert coerces v to the Go representation of dt, following the same
// "string<->number, variant->typed" rules spec.md §4.3 describes for
// setValue. A nil value always converts to nil (clearing the slot).
func convert(dt schema.DataType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch dt {
	case schema.DataTypeString:
		return convertToString(v)
	case schema.DataTypeInt:
		return convertToInt(v)
	case schema.DataTypeUint:
		return convertToUint(v)
	case schema.DataTypeNumeric, schema.DataTypeDouble:
		return convertToFloat(v)
	case schema.DataTypeBool:
		return convertToBool(v)
	case schema.DataTypeDate, schema.DataTypeTime, schema.DataTypeDateTime:
		return convertToTime(v)
	case schema.DataTypeBytes, schema.DataTypeImage:
		return convertToBytes(v)
	case schema.DataTypeVariant:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: unknown data type %v", zferr.ErrSchemaViolation, dt)
	}
}

func convertToString(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	case time.Time:
		return t.Format(time.RFC3339), nil
	default:
		return fmt.Sprintf("%v", t), nil
	}
}

func convertToInt(v any) (any, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case uint64:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an int: %v", zferr.ErrConversionFailed, t, err)
		}
		return n, nil
	case bool:
		if t {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		return nil, fmt.Errorf("%w: cannot convert %T to int", zferr.ErrConversionFailed, v)
	}
}

func convertToUint(v any) (any, error) {
	n, err := convertToInt(v)
	if err != nil {
		return nil, err
	}
	i := n.(int64)
	if i < 0 {
		return nil, fmt.Errorf("%w: negative value %d cannot convert to uint", zferr.ErrConversionFailed, i)
	}
	return uint64(i), nil
}

func convertToFloat(v any) (any, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int64:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not numeric: %v", zferr.ErrConversionFailed, t, err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%w: cannot convert %T to a numeric type", zferr.ErrConversionFailed, v)
	}
}

func convertToBool(v any) (any, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a bool: %v", zferr.ErrConversionFailed, t, err)
		}
		return b, nil
	case int64:
		return t != 0, nil
	default:
		return nil, fmt.Errorf("%w: cannot convert %T to bool", zferr.ErrConversionFailed, v)
	}
}

func convertToTime(v any) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02", "15:04:05", "2006-01-02 15:04:05"} {
			if tm, err := time.Parse(layout, t); err == nil {
				return tm, nil
			}
		}
		return nil, fmt.Errorf("%w: %q does not match any known time layout", zferr.ErrConversionFailed, t)
	default:
		return nil, fmt.Errorf("%w: cannot convert %T to time", zferr.ErrConversionFailed, v)
	}
}

func convertToBytes(v any) (any, error) {
	switch t := v.(type) {
	case []byte:
		return t, nil
	case string:
		return []byte(t), nil
	default:
		return nil, fmt.Errorf("%w: cannot convert %T to bytes", zferr.ErrConversionFailed, v)
	}
}
