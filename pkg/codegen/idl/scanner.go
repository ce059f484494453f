package idl

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// TokenType represents the type of token
type TokenType string

const (
	TokenIdentifier  TokenType = "IDENTIFIER"
	TokenString      TokenType = "STRING"
	TokenNumber      TokenType = "NUMBER"
	TokenPunctuation TokenType = "PUNCTUATION"
	TokenAnnotation  TokenType = "ANNOTATION"
	TokenComment     TokenType = "COMMENT"
	TokenDocComment  TokenType = "DOC_COMMENT"
	TokenEOF         TokenType = "EOF"
	TokenError       TokenType = "ERROR"
)

// Position is a line and column in the source, both starting at 1
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexical token. String tokens hold the decoded value,
// annotation tokens the annotation name. Doc is the doc comment directly
// preceding the token, filled in by the parser.
type Token struct {
	Type TokenType
	Text string
	Pos  Position
	Doc  string
}

// Scanner represents a lexical scanner for Avro IDL
type Scanner struct {
	r      *bufio.Reader
	ch     rune // current character
	pos    Position
	nextAt Position // position of the character after ch
}

// NewScanner creates a new Scanner
func NewScanner(r io.Reader) *Scanner {
	s := &Scanner{
		r:      bufio.NewReader(r),
		nextAt: Position{Line: 1, Column: 1},
	}
	s.next()
	return s
}

// next reads the next Unicode character into s.ch
func (s *Scanner) next() {
	s.pos = s.nextAt

	r, _, err := s.r.ReadRune()
	if err != nil {
		s.ch = -1 // EOF
		return
	}
	s.ch = r

	if r == '\n' {
		s.nextAt.Line++
		s.nextAt.Column = 1
	} else {
		s.nextAt.Column++
	}
}

// peek returns the next rune without advancing
func (s *Scanner) peek() rune {
	r, _, err := s.r.ReadRune()
	if err != nil {
		return -1
	}
	_ = s.r.UnreadRune()
	return r
}

func (s *Scanner) skipWhitespace() {
	for unicode.IsSpace(s.ch) {
		s.next()
	}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.'
}

func (s *Scanner) scanIdentifier() string {
	var sb strings.Builder
	for isIdentPart(s.ch) {
		sb.WriteRune(s.ch)
		s.next()
	}
	return sb.String()
}

// scanQuotedIdentifier scans a backtick-quoted identifier, used to name
// things after keywords
func (s *Scanner) scanQuotedIdentifier() (string, error) {
	s.next() // consume the opening backtick

	var sb strings.Builder
	for s.ch != '`' {
		if s.ch == -1 || s.ch == '\n' {
			return "", fmt.Errorf("unterminated quoted identifier")
		}
		sb.WriteRune(s.ch)
		s.next()
	}
	s.next()
	return sb.String(), nil
}

func (s *Scanner) scanNumber() string {
	var sb strings.Builder
	if s.ch == '-' {
		sb.WriteRune(s.ch)
		s.next()
	}
	for unicode.IsDigit(s.ch) || s.ch == '.' || s.ch == 'e' || s.ch == 'E' ||
		((s.ch == '+' || s.ch == '-') && strings.HasSuffix(strings.ToLower(sb.String()), "e")) {
		sb.WriteRune(s.ch)
		s.next()
	}
	return sb.String()
}

func (s *Scanner) scanString() (string, error) {
	s.next() // consume the opening quote

	var sb strings.Builder
	for s.ch != '"' {
		if s.ch == -1 || s.ch == '\n' {
			return "", fmt.Errorf("unterminated string")
		}

		if s.ch != '\\' {
			sb.WriteRune(s.ch)
			s.next()
			continue
		}

		s.next() // consume backslash
		switch s.ch {
		case 'n':
			sb.WriteRune('\n')
		case 'r':
			sb.WriteRune('\r')
		case 't':
			sb.WriteRune('\t')
		case 'b':
			sb.WriteRune('\b')
		case 'f':
			sb.WriteRune('\f')
		case '\\', '"', '\'', '/':
			sb.WriteRune(s.ch)
		case 'u':
			var hex strings.Builder
			for i := 0; i < 4; i++ {
				s.next()
				hex.WriteRune(s.ch)
			}
			val, err := strconv.ParseUint(hex.String(), 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid unicode escape sequence")
			}
			sb.WriteRune(rune(val))
		default:
			return "", fmt.Errorf("invalid escape sequence: \\%c", s.ch)
		}
		s.next()
	}
	s.next() // consume the closing quote

	return sb.String(), nil
}

// scanComment scans a comment starting at '/'. It reports whether the
// comment is a doc comment and returns the raw text.
func (s *Scanner) scanComment() (string, bool, error) {
	var sb strings.Builder
	sb.WriteRune(s.ch)
	s.next()

	if s.ch == '/' {
		for s.ch != '\n' && s.ch != -1 {
			sb.WriteRune(s.ch)
			s.next()
		}
		return sb.String(), false, nil
	}

	// Block comment
	sb.WriteRune(s.ch)
	s.next()
	for {
		if s.ch == -1 {
			return "", false, fmt.Errorf("unterminated comment")
		}
		if s.ch == '*' && s.peek() == '/' {
			sb.WriteString("*/")
			s.next()
			s.next()
			break
		}
		sb.WriteRune(s.ch)
		s.next()
	}

	text := sb.String()
	doc := strings.HasPrefix(text, "/**") && text != "/**/"
	return text, doc, nil
}

// Scan returns the next token
func (s *Scanner) Scan() (Token, error) {
	s.skipWhitespace()

	tok := Token{Pos: s.pos}

	switch {
	case s.ch == -1:
		tok.Type = TokenEOF
	case isIdentStart(s.ch):
		tok.Type = TokenIdentifier
		tok.Text = s.scanIdentifier()
	case s.ch == '`':
		text, err := s.scanQuotedIdentifier()
		if err != nil {
			tok.Type = TokenError
			return tok, err
		}
		tok.Type = TokenIdentifier
		tok.Text = text
	case unicode.IsDigit(s.ch) || (s.ch == '-' && unicode.IsDigit(s.peek())):
		tok.Type = TokenNumber
		tok.Text = s.scanNumber()
	case s.ch == '"':
		text, err := s.scanString()
		if err != nil {
			tok.Type = TokenError
			return tok, err
		}
		tok.Type = TokenString
		tok.Text = text
	case s.ch == '/' && (s.peek() == '/' || s.peek() == '*'):
		text, doc, err := s.scanComment()
		if err != nil {
			tok.Type = TokenError
			return tok, err
		}
		tok.Type = TokenComment
		tok.Text = text
		if doc {
			tok.Type = TokenDocComment
			tok.Text = docText(text)
		}
	case s.ch == '@':
		s.next()
		var sb strings.Builder
		for isIdentPart(s.ch) || s.ch == '-' {
			sb.WriteRune(s.ch)
			s.next()
		}
		if sb.Len() == 0 {
			tok.Type = TokenError
			return tok, fmt.Errorf("expected annotation name after @")
		}
		tok.Type = TokenAnnotation
		tok.Text = sb.String()
	case strings.ContainsRune(";,={}[]()<>:?", s.ch):
		tok.Type = TokenPunctuation
		tok.Text = string(s.ch)
		s.next()
	default:
		tok.Type = TokenError
		tok.Text = string(s.ch)
		s.next()
		return tok, fmt.Errorf("unexpected character: %q", tok.Text)
	}

	return tok, nil
}

// docText strips the comment markers and leading asterisks from a doc comment
func docText(raw string) string {
	body := strings.TrimSuffix(strings.TrimPrefix(raw, "/**"), "*/")

	var lines []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		lines = append(lines, line)
	}

	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
