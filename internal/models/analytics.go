package models

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day key format used by daily totals.
const DateLayout = "2006-01-02"

// CategoryKey builds the category-totals key for a category and type,
// e.g. "groceries-withdraw".
func CategoryKey(category string, t TransactionType) string {
	return category + "-" + string(t)
}

// DailyTotal holds one calendar day's sums.
type DailyTotal struct {
	Deposits    decimal.Decimal `json:"deposits"`
	Withdrawals decimal.Decimal `json:"withdrawals"`
}

// Analytics is the projection returned by the analytics endpoint.
type Analytics struct {
	CategoryTotals *CategoryTotals `json:"categoryTotals"`
	DailyTotals    *DailyTotals    `json:"dailyTotals"`
}

// CategoryTotals maps "<category>-<type>" to a summed amount.
// Keys keep the order in which they were first seen.
type CategoryTotals struct {
	keys   []string
	values map[string]decimal.Decimal
}

// NewCategoryTotals returns an empty CategoryTotals.
func NewCategoryTotals() *CategoryTotals {
	return &CategoryTotals{values: make(map[string]decimal.Decimal)}
}

// Add accumulates amount into key.
func (c *CategoryTotals) Add(key string, amount decimal.Decimal) {
	cur, ok := c.values[key]
	if !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = cur.Add(amount)
}

// Get returns the total for key.
func (c *CategoryTotals) Get(key string) (decimal.Decimal, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Keys returns the keys in first-occurrence order.
func (c *CategoryTotals) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Len returns the number of keys.
func (c *CategoryTotals) Len() int {
	return len(c.keys)
}

// MarshalJSON writes the totals as an object in first-occurrence order.
func (c *CategoryTotals) MarshalJSON() ([]byte, error) {
	return marshalOrdered(c.keys, func(k string) any { return c.values[k] })
}

// UnmarshalJSON reads an object of totals. Key order follows the input.
func (c *CategoryTotals) UnmarshalJSON(data []byte) error {
	*c = *NewCategoryTotals()
	return unmarshalOrdered(data, func(k string, raw json.RawMessage) error {
		var v decimal.Decimal
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		c.Add(k, v)
		return nil
	})
}

// DailyTotals maps a UTC calendar date (YYYY-MM-DD) to that day's sums.
// Keys keep the order in which they were first seen.
type DailyTotals struct {
	keys   []string
	values map[string]*DailyTotal
}

// NewDailyTotals returns an empty DailyTotals.
func NewDailyTotals() *DailyTotals {
	return &DailyTotals{values: make(map[string]*DailyTotal)}
}

// Add accumulates amount into the bucket for day selected by t.
func (d *DailyTotals) Add(day string, t TransactionType, amount decimal.Decimal) {
	cur, ok := d.values[day]
	if !ok {
		cur = &DailyTotal{}
		d.values[day] = cur
		d.keys = append(d.keys, day)
	}
	if t == TransactionDeposit {
		cur.Deposits = cur.Deposits.Add(amount)
	} else {
		cur.Withdrawals = cur.Withdrawals.Add(amount)
	}
}

// Get returns the totals for day.
func (d *DailyTotals) Get(day string) (DailyTotal, bool) {
	v, ok := d.values[day]
	if !ok {
		return DailyTotal{}, false
	}
	return *v, true
}

// Keys returns the days in first-occurrence order.
func (d *DailyTotals) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Len returns the number of days.
func (d *DailyTotals) Len() int {
	return len(d.keys)
}

// MarshalJSON writes the totals as an object in first-occurrence order.
func (d *DailyTotals) MarshalJSON() ([]byte, error) {
	return marshalOrdered(d.keys, func(k string) any { return d.values[k] })
}

// UnmarshalJSON reads an object of daily totals. Key order follows the input.
func (d *DailyTotals) UnmarshalJSON(data []byte) error {
	*d = *NewDailyTotals()
	return unmarshalOrdered(data, func(k string, raw json.RawMessage) error {
		var v DailyTotal
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		if _, ok := d.values[k]; !ok {
			d.keys = append(d.keys, k)
		}
		d.values[k] = &v
		return nil
	})
}

func marshalOrdered(keys []string, value func(string) any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(value(k))
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func unmarshalOrdered(data []byte, set func(string, json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("expected JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := set(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}
