package bus

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Commands. Each is the first byte of a request line.
const (
	CmdToggle    byte = 't' // start or stop recording
	CmdStatus    byte = 's' // pipeline status
	CmdSnapshot  byte = 'g' // full UI state as JSON
	CmdInput     byte = 'i' // replace the input text: i "<text>"
	CmdLanguages byte = 'l' // set languages: l "<source>" "<target>", either may be ""
	CmdTranslate byte = 'r' // retranslate the current input
	CmdSpeak     byte = 'p' // read the translation aloud
	CmdCopy      byte = 'y' // copy the translation to the clipboard
	CmdVersion   byte = 'v' // protocol version
	CmdQuit      byte = 'q' // shut the daemon down
)

// Response kinds.
const (
	KindOK       = "OK"
	KindStatus   = "STATUS"
	KindSnapshot = "SNAPSHOT"
	KindError    = "ERR"
)

var ErrEmptyRequest = errors.New("empty request")

// Request is one command with its arguments. Arguments travel as Go quoted
// strings so they may contain spaces and newlines.
type Request struct {
	Cmd  byte
	Args []string
}

func (r Request) Encode() string {
	var b strings.Builder
	b.WriteByte(r.Cmd)
	for _, arg := range r.Args {
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(arg))
	}
	b.WriteByte('\n')
	return b.String()
}

func ParseRequest(line string) (Request, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return Request{}, ErrEmptyRequest
	}

	req := Request{Cmd: line[0]}
	rest := line[1:]
	for {
		rest = strings.TrimLeft(rest, " ")
		if rest == "" {
			return req, nil
		}
		quoted, err := strconv.QuotedPrefix(rest)
		if err != nil {
			return Request{}, fmt.Errorf("malformed argument %q: %w", rest, err)
		}
		arg, err := strconv.Unquote(quoted)
		if err != nil {
			return Request{}, fmt.Errorf("malformed argument %q: %w", quoted, err)
		}
		req.Args = append(req.Args, arg)
		rest = rest[len(quoted):]
	}
}

type Response struct {
	Kind string
	Body string
}

func (r Response) Encode() string {
	if r.Body == "" {
		return r.Kind + "\n"
	}
	return r.Kind + " " + r.Body + "\n"
}

func OK(body string) Response { return Response{Kind: KindOK, Body: body} }

func Errorf(format string, args ...any) Response {
	return Response{Kind: KindError, Body: fmt.Sprintf(format, args...)}
}

// RemoteError is an ERR response from the daemon.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "daemon: " + e.Message
}

func IsRemoteError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

func ParseResponse(line string) (Response, error) {
	line = strings.TrimRight(line, "\r\n")
	kind, body, _ := strings.Cut(line, " ")
	switch kind {
	case KindOK, KindStatus, KindSnapshot:
		return Response{Kind: kind, Body: body}, nil
	case KindError:
		return Response{Kind: kind, Body: body}, &RemoteError{Message: body}
	default:
		return Response{}, fmt.Errorf("unexpected response %q", line)
	}
}
