package stream

// WriteCommand buffers p verbatim. p must already end in CRLF.
//
// Nothing is sent until Flush, so several commands can be queued before
// their responses are read.
func (s *Stream) WriteCommand(p []byte) error {
	n, err := s.w.Write(p)
	s.bytesWritten += int64(n)
	if err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}

// WriteCommandString is a convenience method that buffers a string command.
func (s *Stream) WriteCommandString(cmd string) error {
	n, err := s.w.WriteString(cmd)
	s.bytesWritten += int64(n)
	if err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}

// WriteBlock buffers content as a multiline block: lines starting with "."
// are dot-stuffed, a missing final CRLF is added, and the terminator line is
// appended.
func (s *Stream) WriteBlock(content []byte) error {
	return s.WriteCommand(Stuff(nil, content))
}

// Flush sends all buffered commands.
func (s *Stream) Flush() error {
	if err := s.w.Flush(); err != nil {
		return &IOError{Op: "flush", Err: err}
	}
	return nil
}

// Buffered returns the number of command bytes waiting for Flush.
func (s *Stream) Buffered() int {
	return s.w.Buffered()
}
