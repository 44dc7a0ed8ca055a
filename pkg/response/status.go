package response

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed indicates a status line or status payload that cannot be parsed.
var ErrMalformed = errors.New("response: malformed")

// MalformedError provides detail about an unparseable status line.
type MalformedError struct {
	Line   string // Offending line without CRLF
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("response: malformed %q: %s", e.Line, e.Reason)
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformed
}

// Status is a parsed status line.
type Status struct {
	Code    int
	Message string
}

func (s Status) String() string {
	return fmt.Sprintf("%d %s", s.Code, s.Message)
}

// Class returns the leading digit of the code: 1 informational, 2 ok,
// 3 send more, 4 temporary failure, 5 permanent failure.
func (s Status) Class() int {
	return s.Code / 100
}

// ParseStatus parses "<code> SP <message> [CRLF]".
//
// The code is everything before the first space and must be an unsigned
// integer. The message is returned byte for byte without the CRLF.
func ParseStatus(line string) (Status, error) {
	line = strings.TrimSuffix(line, "\r\n")

	code, msg, ok := strings.Cut(line, " ")
	if !ok {
		return Status{}, &MalformedError{Line: line, Reason: "missing space after code"}
	}
	n, err := strconv.ParseUint(code, 10, 16)
	if err != nil {
		return Status{}, &MalformedError{Line: line, Reason: fmt.Sprintf("code %q is not numeric", code)}
	}
	return Status{Code: int(n), Message: msg}, nil
}
