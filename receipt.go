package courier

import (
	"time"

	"github.com/tinylib/msgp/msgp"
)

// DeliveryReceipt records the outcome of a send: the delivery id, the
// sender, and every recipient group the remote side accepted. Callers
// implementing external queue or retry policy can persist receipts in
// MessagePack form via MarshalMsg.
type DeliveryReceipt struct {
	ID     string
	From   string
	SentAt time.Time
	Groups []GroupResult
}

// GroupResult is the accepted delivery of one recipient group.
type GroupResult struct {
	Host       string
	Domain     string
	Recipients []string
	Reply      string
}

// MarshalMsg encodes the receipt as MessagePack.
func (r *DeliveryReceipt) MarshalMsg() ([]byte, error) {
	o := make([]byte, 0, 128)
	o = msgp.AppendMapHeader(o, 4)
	o = msgp.AppendString(o, "id")
	o = msgp.AppendString(o, r.ID)
	o = msgp.AppendString(o, "from")
	o = msgp.AppendString(o, r.From)
	o = msgp.AppendString(o, "sent_at")
	o = msgp.AppendTime(o, r.SentAt)
	o = msgp.AppendString(o, "groups")
	o = msgp.AppendArrayHeader(o, uint32(len(r.Groups)))
	for _, g := range r.Groups {
		o = msgp.AppendMapHeader(o, 4)
		o = msgp.AppendString(o, "host")
		o = msgp.AppendString(o, g.Host)
		o = msgp.AppendString(o, "domain")
		o = msgp.AppendString(o, g.Domain)
		o = msgp.AppendString(o, "recipients")
		o = msgp.AppendArrayHeader(o, uint32(len(g.Recipients)))
		for _, rcpt := range g.Recipients {
			o = msgp.AppendString(o, rcpt)
		}
		o = msgp.AppendString(o, "reply")
		o = msgp.AppendString(o, g.Reply)
	}
	return o, nil
}

// UnmarshalReceipt decodes a MessagePack-encoded receipt. Unknown map
// keys are skipped so older readers tolerate newer receipts.
func UnmarshalReceipt(b []byte) (*DeliveryReceipt, error) {
	r := &DeliveryReceipt{}

	fields, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < fields; i++ {
		var key []byte
		key, b, err = msgp.ReadMapKeyZC(b)
		if err != nil {
			return nil, err
		}
		switch string(key) {
		case "id":
			r.ID, b, err = msgp.ReadStringBytes(b)
		case "from":
			r.From, b, err = msgp.ReadStringBytes(b)
		case "sent_at":
			r.SentAt, b, err = msgp.ReadTimeBytes(b)
		case "groups":
			var count uint32
			count, b, err = msgp.ReadArrayHeaderBytes(b)
			if err != nil {
				return nil, err
			}
			r.Groups = make([]GroupResult, 0, count)
			for j := uint32(0); j < count; j++ {
				var g GroupResult
				g, b, err = readGroupResult(b)
				if err != nil {
					return nil, err
				}
				r.Groups = append(r.Groups, g)
			}
		default:
			b, err = msgp.Skip(b)
		}
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func readGroupResult(b []byte) (GroupResult, []byte, error) {
	var g GroupResult

	fields, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return g, b, err
	}
	for i := uint32(0); i < fields; i++ {
		var key []byte
		key, b, err = msgp.ReadMapKeyZC(b)
		if err != nil {
			return g, b, err
		}
		switch string(key) {
		case "host":
			g.Host, b, err = msgp.ReadStringBytes(b)
		case "domain":
			g.Domain, b, err = msgp.ReadStringBytes(b)
		case "recipients":
			var count uint32
			count, b, err = msgp.ReadArrayHeaderBytes(b)
			if err != nil {
				return g, b, err
			}
			g.Recipients = make([]string, 0, count)
			for j := uint32(0); j < count; j++ {
				var rcpt string
				rcpt, b, err = msgp.ReadStringBytes(b)
				if err != nil {
					return g, b, err
				}
				g.Recipients = append(g.Recipients, rcpt)
			}
		case "reply":
			g.Reply, b, err = msgp.ReadStringBytes(b)
		default:
			b, err = msgp.Skip(b)
		}
		if err != nil {
			return g, b, err
		}
	}
	return g, b, nil
}
