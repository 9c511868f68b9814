/*
 * Copyright 2025 Olake By Datazip
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package typeutils

import (
	"fmt"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 UTC",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

type Time struct {
	time.Time
}

// UnmarshalJSON overrides the default unmarshalling for Time
func (ct *Time) UnmarshalJSON(b []byte) error {
	str := strings.Trim(string(b), "\"")
	parsed, err := ParseTimestamp(str)
	if err != nil {
		return err
	}

	*ct = Time{parsed}
	return nil
}

// Compare compares the time instant ct with u. If ct is before u, it returns -1;
// if ct is after u, it returns +1; if they're the same, it returns 0.
func (ct Time) Compare(u Time) int {
	return ct.Time.Compare(u.Time)
}

// ParseTimestamp parses the timestamp shapes returned by the API and kept in state
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("failed to parse timestamp[%s]", value)
}

// ToTime interprets v as a point in time; numbers are read as millisecond epochs
func ToTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val.UTC(), true
	case Time:
		return val.UTC(), true
	case string:
		parsed, err := ParseTimestamp(val)
		return parsed, err == nil
	}

	if ms, ok := toFloat(v); ok {
		return time.UnixMilli(int64(ms)).UTC(), true
	}

	return time.Time{}, false
}

// FormatTimestamp renders t the way bookmarks are stored
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
