package storage

import (
	"fmt"
	"pulse-lab/domain/poll"
	"pulse-lab/infrastructure/codec"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Record is a human readable view of one stored key, for debugging tools.
type Record struct {
	Key     string
	Kind    string
	Session string
	Slide   string
	Detail  string
}

// Describe decodes a raw key/value pair of the poll keyspace.
// Unknown keys come back with Kind "UNKNOWN" and the raw value size.
func Describe(key string, val []byte) Record {
	rec := Record{Key: key, Kind: "UNKNOWN", Detail: fmt.Sprintf("%d bytes", len(val))}

	if id, ok := strings.CutPrefix(key, sessionIndexPrefix); ok {
		rec.Kind = "SESSION"
		rec.Session = id
		var ts timestamppb.Timestamp
		if err := proto.Unmarshal(val, &ts); err == nil {
			rec.Detail = "created " + ts.AsTime().Format(time.RFC3339)
		}
		return rec
	}

	rest, ok := strings.CutPrefix(key, sessionScopePrefix)
	if !ok {
		return rec
	}
	parts := strings.SplitN(rest, ":", 4)
	rec.Session = parts[0]
	if len(parts) < 2 {
		return rec
	}

	switch parts[1] {
	case "prompt":
		rec.Kind = "PROMPT"
		rec.Slide, rec.Detail = describePrompt(val)
	case "slide":
		rec.Kind = "SLIDE"
		rec.Slide, rec.Detail = describePrompt(val)
	case "tally":
		if len(parts) == 4 {
			rec.Kind = "TALLY"
			rec.Slide = parts[2]
			if count, ok := decodeCounter(val); ok {
				rec.Detail = fmt.Sprintf("%s = %d", parts[3], count)
			}
		}
	case "mark":
		if len(parts) == 4 {
			rec.Kind = "MARK"
			rec.Slide = parts[2]
			var mark wrapperspb.StringValue
			if err := proto.Unmarshal(val, &mark); err == nil {
				rec.Detail = fmt.Sprintf("%s -> %s", parts[3], mark.GetValue())
			}
		}
	}
	return rec
}

func describePrompt(val []byte) (string, string) {
	var s structpb.Struct
	if err := proto.Unmarshal(val, &s); err != nil {
		return "", "Error: unmarshal failed"
	}
	prompt, err := codec.PromptFromStruct(&s)
	if err != nil {
		return "", "Error: " + err.Error()
	}
	return string(prompt.Slide()), fmt.Sprintf("%s %q", prompt.Kind(), prompt.Text())
}

// InspectMapper renders poll records in the sdk-go Badger inspector.
func InspectMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	rec := Describe(key, val)
	row.Type = rec.Kind
	row.Detail = rec.Detail
	if rec.Slide != "" {
		row.Detail = fmt.Sprintf("[%s] %s", rec.Slide, rec.Detail)
	}
	return row
}

// SessionPrefix narrows a Scan to the records scoped to one session.
func SessionPrefix(id poll.SessionID) string {
	return string(sessionScope(id))
}

// Scan describes every record under prefix, in key order.
func Scan(db *badger.DB, prefix string, fn func(Record) error) error {
	return db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read %s: %w", it.Item().Key(), err)
			}
			if err := fn(Describe(string(it.Item().Key()), val)); err != nil {
				return err
			}
		}
		return nil
	})
}
