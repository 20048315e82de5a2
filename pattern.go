package flume

import (
	"strconv"
	"strings"

	"github.com/grafana/regexp"
)

// Pattern represents a compiled route pattern used for matching request
// paths. Patterns are made of literal segments ('/users/list') and named
// parameter segments ('{id}', '{id:int}', '{rest:path}'). Use NewPattern to
// create patterns from strings.
type Pattern struct {
	str    string
	chunks []chunk
	regExp *regexp.Regexp
	types  map[string]paramType
}

// NewPattern creates a pattern from a string. A parameter segment takes the
// form '{name}' or '{name:type}' where type is one of string, int, or path.
// An int parameter only matches a valid integer literal. A path parameter
// greedily matches the remainder of the request path and must be the final
// segment. Examples: '/users/{id:int}', '/files/{name:path}'. Returns a
// *PatternError if the pattern string is invalid.
func NewPattern(patternStr string) (*Pattern, error) {
	chunks, err := parsePatternChunks(patternStr)
	if err != nil {
		return nil, err
	}

	patternRegExp, err := regExpFromChunks(patternStr, chunks)
	if err != nil {
		return nil, err
	}

	types := map[string]paramType{}
	for _, currentChunk := range chunks {
		if currentChunk.kind == dynamic {
			types[currentChunk.name] = currentChunk.paramType
		}
	}

	return &Pattern{
		str:    patternStr,
		chunks: chunks,
		regExp: patternRegExp,
		types:  types,
	}, nil
}

// MustPattern is like NewPattern but panics if the pattern is invalid. It is
// intended for patterns fixed at startup.
func MustPattern(patternStr string) *Pattern {
	pattern, err := NewPattern(patternStr)
	if err != nil {
		panic(err)
	}
	return pattern
}

// Match compares a path to the pattern and returns the named parameters
// extracted from the path. If the path matches the pattern the second return
// value is true. A typed parameter whose segment fails coercion (such as
// '{id:int}' against 'abc') is an ordinary non-match, not an error.
func (p *Pattern) Match(path string) (Params, bool) {
	matchIndices := p.regExp.FindStringSubmatchIndex(path)
	if len(matchIndices) == 0 {
		return nil, false
	}

	keys := p.regExp.SubexpNames()

	params := make(Params, len(keys))
	for i := 1; i < len(keys); i += 1 {
		if keys[i] == "" {
			continue
		}
		startIdx := matchIndices[i*2]
		endIdx := matchIndices[i*2+1]
		if startIdx < 0 || endIdx < 0 {
			continue
		}
		value := path[startIdx:endIdx]

		if p.types[keys[i]] == paramInt {
			intValue, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, false
			}
			params[keys[i]] = intValue
			continue
		}

		params[keys[i]] = value
	}

	return params, true
}

// String returns the string representation of the pattern.
func (p *Pattern) String() string {
	return p.str
}

type chunkKind int

const (
	static chunkKind = iota
	dynamic
)

type paramType int

const (
	paramString paramType = iota
	paramInt
	paramPath
)

type chunk struct {
	kind      chunkKind
	literal   string
	name      string
	paramType paramType
}

func parsePatternChunks(patternStr string) ([]chunk, error) {
	if !strings.HasPrefix(patternStr, "/") {
		return nil, &PatternError{Pattern: patternStr, Reason: "pattern must start with a leading slash"}
	}
	if patternStr == "/" {
		return nil, nil
	}

	segments := strings.Split(strings.TrimPrefix(patternStr, "/"), "/")

	seenNames := map[string]bool{}
	chunks := make([]chunk, 0, len(segments))
	for i, segment := range segments {
		isLastSegment := i+1 == len(segments)

		if segment == "" {
			return nil, &PatternError{Pattern: patternStr, Reason: "pattern contains an empty segment"}
		}

		if !strings.HasPrefix(segment, "{") {
			if strings.ContainsAny(segment, "{}") {
				return nil, &PatternError{Pattern: patternStr, Reason: "unmatched brace in segment " + strconv.Quote(segment)}
			}
			chunks = append(chunks, chunk{kind: static, literal: segment})
			continue
		}

		if !strings.HasSuffix(segment, "}") || strings.ContainsAny(segment[1:len(segment)-1], "{}") {
			return nil, &PatternError{Pattern: patternStr, Reason: "unmatched brace in segment " + strconv.Quote(segment)}
		}

		name := segment[1 : len(segment)-1]
		segmentParamType := paramString
		if colonIdx := strings.IndexByte(name, ':'); colonIdx != -1 {
			typeTag := name[colonIdx+1:]
			name = name[:colonIdx]

			switch typeTag {
			case "string":
				segmentParamType = paramString
			case "int":
				segmentParamType = paramInt
			case "path":
				segmentParamType = paramPath
			default:
				return nil, &PatternError{Pattern: patternStr, Reason: "unknown parameter type " + strconv.Quote(typeTag)}
			}
		}

		if !isValidParamName(name) {
			return nil, &PatternError{Pattern: patternStr, Reason: "invalid parameter name " + strconv.Quote(name)}
		}
		if seenNames[name] {
			return nil, &PatternError{Pattern: patternStr, Reason: "duplicate parameter name " + strconv.Quote(name)}
		}
		seenNames[name] = true

		if segmentParamType == paramPath && !isLastSegment {
			return nil, &PatternError{Pattern: patternStr, Reason: "path parameter " + strconv.Quote(name) + " must be the final segment"}
		}

		chunks = append(chunks, chunk{kind: dynamic, name: name, paramType: segmentParamType})
	}

	return chunks, nil
}

// regExpFromChunks converts parsed pattern chunks to a regular expression.
func regExpFromChunks(patternStr string, chunks []chunk) (*regexp.Regexp, error) {
	regExpStr := "^"
	for _, currentChunk := range chunks {
		switch currentChunk.kind {
		case static:
			regExpStr += "\\/" + regexp.QuoteMeta(currentChunk.literal)
		case dynamic:
			switch currentChunk.paramType {
			case paramInt:
				regExpStr += "\\/(?P<" + currentChunk.name + ">-?[0-9]+)"
			case paramPath:
				regExpStr += "\\/(?P<" + currentChunk.name + ">.+)"
			default:
				regExpStr += "\\/(?P<" + currentChunk.name + ">[^\\/]+)"
			}
		}
	}
	regExpStr += "\\/?$"

	regExp, err := regexp.Compile(regExpStr)
	if err != nil {
		return nil, &PatternError{Pattern: patternStr, Reason: err.Error()}
	}

	return regExp, nil
}

func isValidParamName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		if !isLetter && !(isDigit && i > 0) {
			return false
		}
	}
	return true
}
