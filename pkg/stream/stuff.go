package stream

import "bytes"

// Unstuff removes the escape dot from every line of block that starts with
// "..". block is modified in place and the shortened slice is returned.
func Unstuff(block []byte) []byte {
	out := block[:0]
	for len(block) > 0 {
		end := bytes.Index(block, crlf)
		var line []byte
		if end < 0 {
			line, block = block, nil
		} else {
			line, block = block[:end+2], block[end+2:]
		}
		if len(line) >= 2 && line[0] == '.' && line[1] == '.' {
			line = line[1:]
		}
		out = append(out, line...)
	}
	return out
}

// Stuff appends content to dst as a wire block: each line starting with "."
// gets an extra dot, content is CRLF terminated, and ".\r\n" follows.
func Stuff(dst, content []byte) []byte {
	wrote := len(content) > 0
	for len(content) > 0 {
		end := bytes.Index(content, crlf)
		var line []byte
		if end < 0 {
			line, content = content, nil
		} else {
			line, content = content[:end+2], content[end+2:]
		}
		if line[0] == '.' {
			dst = append(dst, '.')
		}
		dst = append(dst, line...)
	}
	if wrote && !bytes.HasSuffix(dst, crlf) {
		dst = append(dst, crlf...)
	}
	return append(dst, terminator...)
}
