package types

// KeyValue is the intermediate pair written by a mapper and read back by a
// reducer as a single `key\tvalue` line.
type KeyValue struct {
	Key   string
	Value string
}

// String returns the streaming wire form of the pair.
func (kv KeyValue) String() string {
	return kv.Key + "\t" + kv.Value
}

// MapFunc projects one raw record to zero or more pairs. A non-nil error
// marks the record as rejected; the caller decides how to report it.
type MapFunc func(record string) ([]KeyValue, error)
