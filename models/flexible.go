package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FlexibleString accepts a JSON string or number. The provider is loose
// about which it sends for ids, fees and timestamps.
type FlexibleString string

func (fs *FlexibleString) UnmarshalJSON(data []byte) error {
	var s string
	var i int64
	var f float64

	if err := json.Unmarshal(data, &s); err == nil {
		*fs = FlexibleString(s)
		return nil
	}

	if err := json.Unmarshal(data, &i); err == nil {
		*fs = FlexibleString(fmt.Sprintf("%d", i))
		return nil
	}

	if err := json.Unmarshal(data, &f); err == nil {
		*fs = FlexibleString(fmt.Sprintf("%g", f))
		return nil
	}

	return fmt.Errorf("unable to parse %s as FlexibleString", string(data))
}

func (fs FlexibleString) String() string {
	return string(fs)
}

func (fs FlexibleString) ToInt64() (int64, error) {
	return strconv.ParseInt(string(fs), 10, 64)
}

// ToTime treats the value as epoch milliseconds. Empty input yields nil.
func (fs FlexibleString) ToTime() *time.Time {
	if fs == "" {
		return nil
	}
	ms, err := fs.ToInt64()
	if err != nil {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}

// FlexibleDecimal accepts a JSON number or numeric string. null and absent
// both stay null: a missing amount is not the same thing as zero.
type FlexibleDecimal struct {
	decimal.NullDecimal
}

func (fd *FlexibleDecimal) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == `""` {
		fd.Valid = false
		return nil
	}

	raw = strings.Trim(raw, `"`)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("unable to parse %s as FlexibleDecimal", string(data))
	}

	fd.Decimal = d
	fd.Valid = true
	return nil
}
