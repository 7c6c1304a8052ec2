package proto

import "strings"

// Terminator lines. A reply is payload lines (possibly none) followed by
// exactly one terminator.
const (
	ReplyOK  = "OK"
	ReplyErr = "ERR"
)

// Reply is one complete response to one command.
type Reply struct {
	Payload []string
	Err     error
}

// Ok builds a success reply with optional payload lines.
func Ok(payload ...string) Reply {
	return Reply{Payload: payload}
}

// Fail builds an error reply.
func Fail(err error) Reply {
	return Reply{Err: err}
}

// Encode renders the reply as wire text, terminator included, ready to be
// written to the client. Payload lines never start with a terminator token;
// encode guards that by indenting offending lines.
func (r Reply) Encode() string {
	var b strings.Builder
	for _, line := range r.Payload {
		if strings.HasPrefix(line, ReplyOK) || strings.HasPrefix(line, ReplyErr) {
			b.WriteByte(' ')
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if r.Err != nil {
		b.WriteString(ReplyErr)
		b.WriteByte(' ')
		b.WriteString(r.Err.Error())
	} else {
		b.WriteString(ReplyOK)
	}
	b.WriteByte('\n')
	return b.String()
}

// IsTerminator reports whether a received line ends a reply, for clients
// reading responses.
func IsTerminator(line string) bool {
	return line == ReplyOK || strings.HasPrefix(line, ReplyErr+" ") || line == ReplyErr
}
