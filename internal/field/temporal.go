package field

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ixdb/errs"
)

// ── DATE ────────────────────────────────────────────────────────────────

// DateField packs year (bits 16-31), month 0-based (bits 8-15) and day
// (bits 0-7) into 4 bytes. NULL is the all-ones pattern.
type DateField struct{ raw uint32 }

// NewDate validates day in 1..31, month in 0..11, year in -10000..10000 at
// construction, per the codec's edge cases.
func NewDate(year, month0 int, day int) (*DateField, error) {
	if day < 1 || day > 31 {
		return nil, errs.New(errs.BadFormat, "field: DATE day %d out of range 1..31", day)
	}
	if month0 < 0 || month0 > 11 {
		return nil, errs.New(errs.BadFormat, "field: DATE month %d out of range 0..11", month0)
	}
	if year < -10000 || year > 10000 {
		return nil, errs.New(errs.BadFormat, "field: DATE year %d out of range -10000..10000", year)
	}
	raw := uint32(uint16(int16(year)))<<16 | uint32(uint8(month0))<<8 | uint32(uint8(day))
	return &DateField{raw: raw}, nil
}

func NullDate() *DateField { return &DateField{raw: 0xFFFFFFFF} }

func (f *DateField) Type() Type      { return Type{Kind: Date} }
func (f *DateField) IsNull() bool    { return f.raw == 0xFFFFFFFF }
func (f *DateField) ByteLength() int { return 4 }
func (f *DateField) Clone() Field    { c := *f; return &c }
func (f *DateField) Year() int       { return int(int16(f.raw >> 16)) }
func (f *DateField) Month() int      { return int(uint8(f.raw >> 8)) }
func (f *DateField) Day() int        { return int(uint8(f.raw)) }

func (f *DateField) Encode(buf []byte, offset int) (int, error) {
	if offset+4 > len(buf) {
		return 0, errs.New(errs.PageFormat, "field: buffer too small for DATE")
	}
	binary.LittleEndian.PutUint32(buf[offset:], f.raw)
	return 4, nil
}
func (f *DateField) EncodeAsString() string {
	if f.IsNull() {
		return "NULL"
	}
	return fmt.Sprintf("%04d-%02d-%02d", f.Year(), f.Month()+1, f.Day())
}
func (f *DateField) Compare(other Field) (int, error) {
	o, ok := other.(*DateField)
	if !ok {
		return 0, errs.New(errs.IllegalOperation, "field: cannot compare DATE with %v", other.Type())
	}
	if r, isNull := compareNulls(f.IsNull(), o.IsNull()); isNull {
		return r, nil
	}
	if c := cmpInt64(int64(f.Year()), int64(o.Year())); c != 0 {
		return c, nil
	}
	if c := cmpInt64(int64(f.Month()), int64(o.Month())); c != 0 {
		return c, nil
	}
	return cmpInt64(int64(f.Day()), int64(o.Day())), nil
}

// decodeDate performs no validation: "trust-the-page" per the codec's edge
// cases — a corrupt on-disk value is only caught when its components are
// later inspected.
func decodeDate(data []byte) (Field, error) {
	if len(data) != 4 {
		return nil, errs.New(errs.PageFormat, "field: DATE requires 4 bytes, got %d", len(data))
	}
	return &DateField{raw: binary.LittleEndian.Uint32(data)}, nil
}

func dateFromString(s string) (Field, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return nil, errs.New(errs.BadFormat, "field: invalid DATE %q, want YYYY-MM-DD", s)
	}
	y, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	d, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return nil, errs.New(errs.BadFormat, "field: invalid DATE %q", s)
	}
	return NewDate(y, m-1, d)
}

// ── TIME ────────────────────────────────────────────────────────────────

// TimeField packs milliseconds since local midnight (low 32 bits) and a
// UTC offset in milliseconds (high 32 bits). NULL is the all-ones pattern.
type TimeField struct{ raw uint64 }

const maxUTCOffsetMs = 12 * 3600 * 1000

// NewTime validates hour/minute/second/ms ranges and bounds the UTC offset
// to +/-12h, per the codec's edge cases.
func NewTime(hour, minute, second, ms int, utcOffsetMs int) (*TimeField, error) {
	if hour < 0 || hour > 23 {
		return nil, errs.New(errs.BadFormat, "field: TIME hour %d out of range 0..23", hour)
	}
	if minute < 0 || minute > 59 {
		return nil, errs.New(errs.BadFormat, "field: TIME minute %d out of range 0..59", minute)
	}
	if second < 0 || second > 59 {
		return nil, errs.New(errs.BadFormat, "field: TIME second %d out of range 0..59", second)
	}
	if ms < 0 || ms > 999 {
		return nil, errs.New(errs.BadFormat, "field: TIME millisecond %d out of range 0..999", ms)
	}
	if utcOffsetMs < -maxUTCOffsetMs || utcOffsetMs > maxUTCOffsetMs {
		return nil, errs.New(errs.BadFormat, "field: TIME UTC offset %dms exceeds +/-12h", utcOffsetMs)
	}
	msOfDay := uint32(((hour*60+minute)*60+second)*1000 + ms)
	raw := uint64(msOfDay) | uint64(uint32(utcOffsetMs))<<32
	return &TimeField{raw: raw}, nil
}

func NullTime() *TimeField { return &TimeField{raw: 0xFFFFFFFFFFFFFFFF} }

func (f *TimeField) Type() Type      { return Type{Kind: Time} }
func (f *TimeField) IsNull() bool    { return f.raw == 0xFFFFFFFFFFFFFFFF }
func (f *TimeField) ByteLength() int { return 8 }
func (f *TimeField) Clone() Field    { c := *f; return &c }
func (f *TimeField) MillisOfDay() int  { return int(uint32(f.raw)) }
func (f *TimeField) UTCOffsetMs() int  { return int(int32(f.raw >> 32)) }

func (f *TimeField) Encode(buf []byte, offset int) (int, error) {
	if offset+8 > len(buf) {
		return 0, errs.New(errs.PageFormat, "field: buffer too small for TIME")
	}
	binary.LittleEndian.PutUint64(buf[offset:], f.raw)
	return 8, nil
}
func (f *TimeField) EncodeAsString() string {
	if f.IsNull() {
		return "NULL"
	}
	ms := f.MillisOfDay()
	h := ms / 3600000
	ms %= 3600000
	m := ms / 60000
	ms %= 60000
	s := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d%+03d:00", h, m, s, ms, f.UTCOffsetMs()/3600000)
}
func (f *TimeField) Compare(other Field) (int, error) {
	o, ok := other.(*TimeField)
	if !ok {
		return 0, errs.New(errs.IllegalOperation, "field: cannot compare TIME with %v", other.Type())
	}
	if r, isNull := compareNulls(f.IsNull(), o.IsNull()); isNull {
		return r, nil
	}
	return cmpInt64(int64(f.MillisOfDay()), int64(o.MillisOfDay())), nil
}

func decodeTime(data []byte) (Field, error) {
	if len(data) != 8 {
		return nil, errs.New(errs.PageFormat, "field: TIME requires 8 bytes, got %d", len(data))
	}
	return &TimeField{raw: binary.LittleEndian.Uint64(data)}, nil
}

func timeFromString(s string) (Field, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return nil, errs.New(errs.BadFormat, "field: invalid TIME %q, want HH:MM:SS", s)
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	secStr := parts[2]
	ms := 0
	if dot := strings.IndexByte(secStr, '.'); dot >= 0 {
		msPart := secStr[dot+1:]
		secStr = secStr[:dot]
		var err error
		ms, err = strconv.Atoi(msPart)
		if err != nil {
			return nil, errs.New(errs.BadFormat, "field: invalid TIME %q", s)
		}
	}
	sec, err3 := strconv.Atoi(secStr)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil, errs.New(errs.BadFormat, "field: invalid TIME %q", s)
	}
	return NewTime(h, m, sec, ms, 0)
}

// ── TIMESTAMP ───────────────────────────────────────────────────────────

// TimestampField is milliseconds since the UTC epoch. NULL is the minimum
// signed 64-bit value.
type TimestampField struct{ V int64 }

func NewTimestampMillis(ms int64) *TimestampField { return &TimestampField{V: ms} }
func NullTimestamp() *TimestampField              { return &TimestampField{V: nullBigInt} }

// NewTimestamp constructs a TIMESTAMP via a proleptic Gregorian calendar in
// UTC from (year, month 1-12, day, hour, minute, second, millisecond),
// failing with BadFormat on out-of-range components (month, day-of-month,
// hour, minute, second, millisecond) rather than silently normalizing them.
func NewTimestamp(year, month, day, hour, minute, second, ms int) (*TimestampField, error) {
	if month < 1 || month > 12 {
		return nil, errs.New(errs.BadFormat, "field: TIMESTAMP month %d out of range 1..12", month)
	}
	if day < 1 || day > daysInMonth(year, month) {
		return nil, errs.New(errs.BadFormat, "field: TIMESTAMP day %d invalid for %04d-%02d", day, year, month)
	}
	if hour < 0 || hour > 23 {
		return nil, errs.New(errs.BadFormat, "field: TIMESTAMP hour %d out of range 0..23", hour)
	}
	if minute < 0 || minute > 59 {
		return nil, errs.New(errs.BadFormat, "field: TIMESTAMP minute %d out of range 0..59", minute)
	}
	if second < 0 || second > 59 {
		return nil, errs.New(errs.BadFormat, "field: TIMESTAMP second %d out of range 0..59", second)
	}
	if ms < 0 || ms > 999 {
		return nil, errs.New(errs.BadFormat, "field: TIMESTAMP millisecond %d out of range 0..999", ms)
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, ms*int(time.Millisecond), time.UTC)
	return &TimestampField{V: t.UnixMilli()}, nil
}

func daysInMonth(year, month int) int {
	// day 0 of the following month is the last day of this one.
	t := time.Date(year, time.Month(month+1), 0, 0, 0, 0, 0, time.UTC)
	return t.Day()
}

func (f *TimestampField) Type() Type      { return Type{Kind: Timestamp} }
func (f *TimestampField) IsNull() bool    { return f.V == nullBigInt }
func (f *TimestampField) ByteLength() int { return 8 }
func (f *TimestampField) Clone() Field    { c := *f; return &c }

func (f *TimestampField) Encode(buf []byte, offset int) (int, error) {
	if offset+8 > len(buf) {
		return 0, errs.New(errs.PageFormat, "field: buffer too small for TIMESTAMP")
	}
	binary.LittleEndian.PutUint64(buf[offset:], uint64(f.V))
	return 8, nil
}
func (f *TimestampField) EncodeAsString() string {
	if f.IsNull() {
		return "NULL"
	}
	return time.UnixMilli(f.V).UTC().Format("2006-01-02T15:04:05.000Z")
}
func (f *TimestampField) Compare(other Field) (int, error) {
	o, ok := other.(*TimestampField)
	if !ok {
		return 0, errs.New(errs.IllegalOperation, "field: cannot compare TIMESTAMP with %v", other.Type())
	}
	if r, isNull := compareNulls(f.IsNull(), o.IsNull()); isNull {
		return r, nil
	}
	return cmpInt64(f.V, o.V), nil
}

func decodeTimestamp(data []byte) (Field, error) {
	if len(data) != 8 {
		return nil, errs.New(errs.PageFormat, "field: TIMESTAMP requires 8 bytes, got %d", len(data))
	}
	return &TimestampField{V: int64(binary.LittleEndian.Uint64(data))}, nil
}

func timestampFromString(s string) (Field, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, errs.Wrap(errs.BadFormat, err, "field: invalid TIMESTAMP %q", s)
	}
	return &TimestampField{V: t.UnixMilli()}, nil
}
